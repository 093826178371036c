package mdtoken

// VisitFunc is called for each visited token index. Returning a non-nil
// error stops the walk and propagates the error to the caller.
type VisitFunc func(idx int, tok Token) error

// stopWalk is a sentinel used internally to short-circuit Walk from
// FindFirst without allocating per call.
var stopWalk = &stopWalkError{}

type stopWalkError struct{}

func (*stopWalkError) Error() string { return "stop walk" }

// Walk performs a pre-order traversal of the subtree rooted at idx.
func Walk(s *Snapshot, idx int, visit VisitFunc) error {
	if idx == None {
		return nil
	}
	tok := s.Token(idx)
	if err := visit(idx, tok); err != nil {
		return err
	}
	for c := tok.FirstChild; c != None; c = s.Token(c).NextSibling {
		if err := Walk(s, c, visit); err != nil {
			return err
		}
	}
	return nil
}

// FindAll returns indices of every token in the subtree rooted at idx for
// which predicate returns true, in document order.
func FindAll(s *Snapshot, idx int, predicate func(Token) bool) []int {
	var out []int
	_ = Walk(s, idx, func(i int, tok Token) error {
		if predicate(tok) {
			out = append(out, i)
		}
		return nil
	})
	return out
}

// FindFirst returns the index of the first token in the subtree rooted at
// idx for which predicate returns true, or None.
func FindFirst(s *Snapshot, idx int, predicate func(Token) bool) int {
	found := None
	_ = Walk(s, idx, func(i int, tok Token) error {
		if predicate(tok) {
			found = i
			return stopWalk
		}
		return nil
	})
	return found
}

// ByKind returns indices of all tokens of the given kind in the subtree
// rooted at idx, in document order.
func ByKind(s *Snapshot, idx int, kind Kind) []int {
	return FindAll(s, idx, func(t Token) bool { return t.Kind == kind })
}

// Ancestors returns the chain of ancestor indices from idx's parent up to
// the root, nearest first.
func Ancestors(s *Snapshot, idx int) []int {
	var out []int
	for p := s.Token(idx).Parent; p != None; p = s.Token(p).Parent {
		out = append(out, p)
	}
	return out
}

// Depth returns the nesting depth of idx (root is depth 0).
func Depth(s *Snapshot, idx int) int {
	return len(Ancestors(s, idx))
}
