package zkregex

// Thompson construction. Every node compiles to a fragment with one entry
// and one exit state; quantifier bounds are expanded by duplication, with a
// state budget to keep pathological patterns from exploding.

const maxNFAStates = 20000

type transKind uint8

const (
	transEps transKind = iota
	transByte
	transBOL
	transEOL
)

type transition struct {
	kind transKind
	set  byteSet
	to   int
}

type nfa struct {
	trans         [][]transition
	start, accept int
}

type nfaBuilder struct {
	trans [][]transition
	src   string
}

func compilePattern(src string) (*nfa, error) {
	ast, err := parsePattern(src)
	if err != nil {
		return nil, err
	}
	return compileAST(ast, src)
}

func compileAST(ast node, src string) (*nfa, error) {
	b := &nfaBuilder{src: src}
	start, accept, err := b.build(ast)
	if err != nil {
		return nil, err
	}
	return &nfa{trans: b.trans, start: start, accept: accept}, nil
}

func (b *nfaBuilder) newState() (int, error) {
	if len(b.trans) >= maxNFAStates {
		return 0, (&parser{src: b.src}).errf("pattern is too large")
	}
	b.trans = append(b.trans, nil)
	return len(b.trans) - 1, nil
}

func (b *nfaBuilder) edge(from int, tr transition) {
	b.trans[from] = append(b.trans[from], tr)
}

func (b *nfaBuilder) build(n node) (start, accept int, err error) {
	switch n := n.(type) {
	case literalNode:
		if start, err = b.newState(); err != nil {
			return
		}
		if accept, err = b.newState(); err != nil {
			return
		}
		b.edge(start, transition{kind: transByte, set: n.set, to: accept})
		return
	case emptyNode:
		if start, err = b.newState(); err != nil {
			return
		}
		return start, start, nil
	case assertNode:
		if start, err = b.newState(); err != nil {
			return
		}
		if accept, err = b.newState(); err != nil {
			return
		}
		kind := transBOL
		if n.kind == assertEOL {
			kind = transEOL
		}
		b.edge(start, transition{kind: kind, to: accept})
		return
	case concatNode:
		if start, err = b.newState(); err != nil {
			return
		}
		accept = start
		for _, sub := range n.subs {
			var s, a int
			if s, a, err = b.build(sub); err != nil {
				return
			}
			b.edge(accept, transition{kind: transEps, to: s})
			accept = a
		}
		return
	case altNode:
		if start, err = b.newState(); err != nil {
			return
		}
		if accept, err = b.newState(); err != nil {
			return
		}
		for _, sub := range n.subs {
			var s, a int
			if s, a, err = b.build(sub); err != nil {
				return
			}
			b.edge(start, transition{kind: transEps, to: s})
			b.edge(a, transition{kind: transEps, to: accept})
		}
		return
	case repeatNode:
		if start, err = b.newState(); err != nil {
			return
		}
		accept = start
		for i := 0; i < n.min; i++ {
			var s, a int
			if s, a, err = b.build(n.sub); err != nil {
				return
			}
			b.edge(accept, transition{kind: transEps, to: s})
			accept = a
		}
		if n.max < 0 {
			var s, a int
			if s, a, err = b.build(n.sub); err != nil {
				return
			}
			var out int
			if out, err = b.newState(); err != nil {
				return
			}
			b.edge(accept, transition{kind: transEps, to: s})
			b.edge(accept, transition{kind: transEps, to: out})
			b.edge(a, transition{kind: transEps, to: s})
			b.edge(a, transition{kind: transEps, to: out})
			return start, out, nil
		}
		for i := n.min; i < n.max; i++ {
			var s, a int
			if s, a, err = b.build(n.sub); err != nil {
				return
			}
			var out int
			if out, err = b.newState(); err != nil {
				return
			}
			b.edge(accept, transition{kind: transEps, to: s})
			b.edge(accept, transition{kind: transEps, to: out})
			b.edge(a, transition{kind: transEps, to: out})
			accept = out
		}
		return
	default:
		// parse never yields unknown nodes
		panic("zkregex: unknown ast node")
	}
}
