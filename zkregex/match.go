package zkregex

import (
	"fmt"
)

type machine struct {
	n    *nfa
	text []byte
}

// closure expands the active set across epsilon transitions and assertions
// that hold at pos.
func (m *machine) closure(active []bool, stack []int, pos int) {
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, tr := range m.n.trans[s] {
			switch tr.kind {
			case transEps:
			case transBOL:
				if pos != 0 {
					continue
				}
			case transEOL:
				if pos != len(m.text) {
					continue
				}
			default:
				continue
			}
			if !active[tr.to] {
				active[tr.to] = true
				stack = append(stack, tr.to)
			}
		}
	}
}

// matchEnds runs the NFA on text[start:limit] and returns every position at
// which the accept state is live, in ascending order. An empty result means
// no match starts at start.
func (m *machine) matchEnds(start, limit int) []int {
	active := make([]bool, len(m.n.trans))
	next := make([]bool, len(m.n.trans))
	active[m.n.start] = true
	m.closure(active, []int{m.n.start}, start)

	var ends []int
	for pos := start; ; pos++ {
		if active[m.n.accept] {
			ends = append(ends, pos)
		}
		if pos >= limit {
			break
		}
		for i := range next {
			next[i] = false
		}
		var stack []int
		any := false
		c := m.text[pos]
		for s, on := range active {
			if !on {
				continue
			}
			for _, tr := range m.n.trans[s] {
				if tr.kind == transByte && tr.set.has(c) && !next[tr.to] {
					next[tr.to] = true
					stack = append(stack, tr.to)
					any = true
				}
			}
		}
		if !any {
			break
		}
		m.closure(next, stack, pos+1)
		active, next = next, active
	}
	return ends
}

// ExtractSubstrIdxes matches the concatenation of the config's fragments
// against input and returns the byte ranges of the public fragments (all
// fragments when revealPrivate is set), in listed order.
//
// Match selection is deterministic: the whole match is the leftmost one, ties
// broken by taking the longest; within it each fragment greedily takes the
// longest range that still lets the remaining fragments tile the rest of the
// match exactly.
func ExtractSubstrIdxes(input string, cfg Config, revealPrivate bool) ([]Span, error) {
	if len(cfg.Parts) == 0 {
		return nil, fmt.Errorf("Failed to match regex: config %q has no parts", cfg.Name)
	}
	text := []byte(input)

	partASTs := make([]node, len(cfg.Parts))
	for i, part := range cfg.Parts {
		ast, err := parsePattern(part.RegexDef)
		if err != nil {
			return nil, err
		}
		partASTs[i] = ast
	}
	whole, err := compileAST(concatNode{subs: partASTs}, cfg.Name)
	if err != nil {
		return nil, err
	}
	parts := make([]*machine, len(cfg.Parts))
	for i, ast := range partASTs {
		n, err := compileAST(ast, cfg.Parts[i].RegexDef)
		if err != nil {
			return nil, err
		}
		parts[i] = &machine{n: n, text: text}
	}

	// Leftmost, then longest.
	wm := &machine{n: whole, text: text}
	entireStart, entireEnd, found := 0, 0, false
	for s := 0; s <= len(text) && !found; s++ {
		if ends := wm.matchEnds(s, len(text)); len(ends) > 0 {
			entireStart, entireEnd = s, ends[len(ends)-1]
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("Failed to match regex: the entire regex of config %q is not found in the input", cfg.Name)
	}

	k := len(parts)
	// feasible[p][i]: fragments p.. can consume text[i:entireEnd] exactly.
	feasible := make([][]bool, k+1)
	for p := range feasible {
		feasible[p] = make([]bool, entireEnd+1)
	}
	feasible[k][entireEnd] = true
	endsAt := make([][][]int, k)
	for p := k - 1; p >= 0; p-- {
		endsAt[p] = make([][]int, entireEnd+1)
		for i := entireStart; i <= entireEnd; i++ {
			ends := parts[p].matchEnds(i, entireEnd)
			endsAt[p][i] = ends
			for _, e := range ends {
				if feasible[p+1][e] {
					feasible[p][i] = true
					break
				}
			}
		}
	}
	if !feasible[0][entireStart] {
		return nil, fmt.Errorf("Failed to match regex: the fragments of config %q cannot tile the match", cfg.Name)
	}

	spans := make([]Span, k)
	pos := entireStart
	for p := 0; p < k; p++ {
		best := -1
		for _, e := range endsAt[p][pos] {
			if e > best && feasible[p+1][e] {
				best = e
			}
		}
		if best < 0 {
			return nil, fmt.Errorf("Failed to match regex: the fragments of config %q cannot tile the match", cfg.Name)
		}
		spans[p] = Span{Start: pos, End: best}
		pos = best
	}

	out := make([]Span, 0, k)
	for p, span := range spans {
		if revealPrivate || cfg.Parts[p].IsPublic {
			out = append(out, span)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("Failed to match regex: config %q has no public parts", cfg.Name)
	}
	return out, nil
}

// ExtractSubstrs returns the matched substrings instead of their ranges.
func ExtractSubstrs(input string, cfg Config, revealPrivate bool) ([]string, error) {
	idxes, err := ExtractSubstrIdxes(input, cfg, revealPrivate)
	if err != nil {
		return nil, err
	}
	outs := make([]string, len(idxes))
	for i, span := range idxes {
		outs[i] = input[span.Start:span.End]
	}
	return outs, nil
}
