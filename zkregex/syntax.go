package zkregex

import "fmt"

// The dialect is byte oriented and deliberately small: literals, classes,
// '.', alternation, grouping, greedy quantifiers (* + ? {m,n}) and the ^/$
// anchors. Look-around, backreferences and lazy quantifiers are rejected,
// since fragment attribution requires every construct to be expressible as
// NFA transitions.

type byteSet [4]uint64

func (s *byteSet) add(b byte)          { s[b>>6] |= 1 << (b & 63) }
func (s byteSet) has(b byte) bool      { return s[b>>6]&(1<<(b&63)) != 0 }
func (s *byteSet) union(o byteSet)     { s[0] |= o[0]; s[1] |= o[1]; s[2] |= o[2]; s[3] |= o[3] }
func (s *byteSet) complement()         { s[0] = ^s[0]; s[1] = ^s[1]; s[2] = ^s[2]; s[3] = ^s[3] }

func (s *byteSet) addRange(lo, hi byte) {
	for b := int(lo); b <= int(hi); b++ {
		s.add(byte(b))
	}
}

type node interface{ isNode() }

type literalNode struct{ set byteSet }

type concatNode struct{ subs []node }

type altNode struct{ subs []node }

// repeatNode repeats sub between min and max times; max -1 means unbounded.
type repeatNode struct {
	sub      node
	min, max int
}

type emptyNode struct{}

type assertKind uint8

const (
	assertBOL assertKind = iota
	assertEOL
)

type assertNode struct{ kind assertKind }

func (literalNode) isNode() {}
func (concatNode) isNode()  {}
func (altNode) isNode()     {}
func (repeatNode) isNode()  {}
func (emptyNode) isNode()   {}
func (assertNode) isNode()  {}

type parser struct {
	src string
	pos int
}

func parsePattern(src string) (node, error) {
	p := &parser{src: src}
	n, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, p.errf("unexpected %q", p.src[p.pos])
	}
	return n, nil
}

func (p *parser) errf(format string, args ...any) error {
	prefix := fmt.Sprintf("Failed to match regex: cannot compile pattern %q: ", p.src)
	return fmt.Errorf(prefix+format, args...)
}

func (p *parser) parseAlt() (node, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	subs := []node{first}
	for p.pos < len(p.src) && p.src[p.pos] == '|' {
		p.pos++
		sub, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if len(subs) == 1 {
		return first, nil
	}
	return altNode{subs: subs}, nil
}

func (p *parser) parseConcat() (node, error) {
	var subs []node
	for p.pos < len(p.src) && p.src[p.pos] != '|' && p.src[p.pos] != ')' {
		sub, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	switch len(subs) {
	case 0:
		return emptyNode{}, nil
	case 1:
		return subs[0], nil
	}
	return concatNode{subs: subs}, nil
}

func (p *parser) parseRepeat() (node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.src) {
		var min, max int
		switch p.src[p.pos] {
		case '*':
			min, max = 0, -1
			p.pos++
		case '+':
			min, max = 1, -1
			p.pos++
		case '?':
			min, max = 0, 1
			p.pos++
		case '{':
			var ok bool
			min, max, ok = p.tryParseBounds()
			if !ok {
				return atom, nil
			}
		default:
			return atom, nil
		}
		if p.pos < len(p.src) && p.src[p.pos] == '?' {
			return nil, p.errf("lazy quantifiers are not supported")
		}
		if _, isAssert := atom.(assertNode); isAssert {
			return nil, p.errf("anchors cannot be quantified")
		}
		atom = repeatNode{sub: atom, min: min, max: max}
	}
	return atom, nil
}

// tryParseBounds parses {m}, {m,} or {m,n}. On malformed input it consumes
// nothing and reports false, leaving the brace to be read as a literal.
func (p *parser) tryParseBounds() (min, max int, ok bool) {
	i := p.pos + 1
	readInt := func() (int, bool) {
		start := i
		v := 0
		for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
			v = v*10 + int(p.src[i]-'0')
			if v > 1000 {
				return 0, false
			}
			i++
		}
		return v, i > start
	}
	min, ok = readInt()
	if !ok {
		return 0, 0, false
	}
	max = min
	if i < len(p.src) && p.src[i] == ',' {
		i++
		if i < len(p.src) && p.src[i] == '}' {
			max = -1
		} else {
			max, ok = readInt()
			if !ok || max < min {
				return 0, 0, false
			}
		}
	}
	if i >= len(p.src) || p.src[i] != '}' {
		return 0, 0, false
	}
	p.pos = i + 1
	return min, max, true
}

func (p *parser) parseAtom() (node, error) {
	if p.pos >= len(p.src) {
		return nil, p.errf("unexpected end of pattern")
	}
	switch c := p.src[p.pos]; c {
	case '(':
		rest := p.src[p.pos:]
		switch {
		case len(rest) >= 3 && (rest[:3] == "(?=" || rest[:3] == "(?!" || rest[:3] == "(?<"):
			return nil, p.errf("look-around is not supported")
		case len(rest) >= 3 && rest[:3] == "(?:":
			p.pos += 3
		case len(rest) >= 2 && rest[1] == '?':
			return nil, p.errf("group flags are not supported")
		default:
			p.pos++
		}
		sub, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, p.errf("missing closing parenthesis")
		}
		p.pos++
		return sub, nil
	case '[':
		return p.parseClass()
	case '.':
		p.pos++
		var set byteSet
		set.complement()
		clear := byteSet{}
		clear.add('\n')
		set[0] &^= clear[0]
		return literalNode{set: set}, nil
	case '\\':
		set, err := p.parseEscapeSet()
		if err != nil {
			return nil, err
		}
		return literalNode{set: set}, nil
	case '^':
		p.pos++
		return assertNode{kind: assertBOL}, nil
	case '$':
		p.pos++
		return assertNode{kind: assertEOL}, nil
	case '*', '+', '?':
		return nil, p.errf("quantifier %q has no operand", c)
	default:
		p.pos++
		var set byteSet
		set.add(c)
		return literalNode{set: set}, nil
	}
}

func (p *parser) parseClass() (node, error) {
	p.pos++ // consume '['
	negate := false
	if p.pos < len(p.src) && p.src[p.pos] == '^' {
		negate = true
		p.pos++
	}
	var set byteSet
	first := true
	for {
		if p.pos >= len(p.src) {
			return nil, p.errf("missing closing bracket")
		}
		c := p.src[p.pos]
		if c == ']' && !first {
			p.pos++
			break
		}
		first = false
		var lo byte
		var isSet bool
		if c == '\\' {
			sub, err := p.parseEscapeSet()
			if err != nil {
				return nil, err
			}
			// Multi-byte escapes like \d cannot anchor a range.
			if b, single := singleByte(sub); single {
				lo = b
			} else {
				set.union(sub)
				isSet = true
			}
		} else {
			lo = c
			p.pos++
		}
		if isSet {
			continue
		}
		if p.pos+1 < len(p.src) && p.src[p.pos] == '-' && p.src[p.pos+1] != ']' {
			p.pos++
			hiSet, err := p.parseClassRangeEnd()
			if err != nil {
				return nil, err
			}
			if hiSet < lo {
				return nil, p.errf("invalid class range")
			}
			set.addRange(lo, hiSet)
			continue
		}
		set.add(lo)
	}
	if negate {
		set.complement()
	}
	return literalNode{set: set}, nil
}

func (p *parser) parseClassRangeEnd() (byte, error) {
	if p.pos >= len(p.src) {
		return 0, p.errf("missing closing bracket")
	}
	if p.src[p.pos] == '\\' {
		sub, err := p.parseEscapeSet()
		if err != nil {
			return 0, err
		}
		b, single := singleByte(sub)
		if !single {
			return 0, p.errf("invalid class range")
		}
		return b, nil
	}
	b := p.src[p.pos]
	p.pos++
	return b, nil
}

func singleByte(s byteSet) (byte, bool) {
	found := -1
	for i := 0; i < 256; i++ {
		if s.has(byte(i)) {
			if found >= 0 {
				return 0, false
			}
			found = i
		}
	}
	if found < 0 {
		return 0, false
	}
	return byte(found), true
}

func (p *parser) parseEscapeSet() (byteSet, error) {
	var set byteSet
	p.pos++ // consume '\'
	if p.pos >= len(p.src) {
		return set, p.errf("trailing backslash")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'd':
		set.addRange('0', '9')
	case 'D':
		set.addRange('0', '9')
		set.complement()
	case 'w':
		set.addRange('0', '9')
		set.addRange('A', 'Z')
		set.addRange('a', 'z')
		set.add('_')
	case 'W':
		set.addRange('0', '9')
		set.addRange('A', 'Z')
		set.addRange('a', 'z')
		set.add('_')
		set.complement()
	case 's':
		for _, b := range []byte{' ', '\t', '\n', '\v', '\f', '\r'} {
			set.add(b)
		}
	case 'S':
		for _, b := range []byte{' ', '\t', '\n', '\v', '\f', '\r'} {
			set.add(b)
		}
		set.complement()
	case 'n':
		set.add('\n')
	case 'r':
		set.add('\r')
	case 't':
		set.add('\t')
	case 'f':
		set.add('\f')
	case 'v':
		set.add('\v')
	case '0':
		set.add(0)
	case 'x':
		if p.pos+2 > len(p.src) {
			return set, p.errf("truncated hex escape")
		}
		hi, ok1 := hexVal(p.src[p.pos])
		lo, ok2 := hexVal(p.src[p.pos+1])
		if !ok1 || !ok2 {
			return set, p.errf("invalid hex escape")
		}
		p.pos += 2
		set.add(hi<<4 | lo)
	case 'b', 'B', 'A', 'z':
		return set, p.errf("escape assertion \\%c is not supported", c)
	default:
		if c >= '1' && c <= '9' {
			return set, p.errf("backreferences are not supported")
		}
		set.add(c)
	}
	return set, nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
