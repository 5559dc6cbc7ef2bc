package shell

// Stack holds the ancestors of the active context, oldest first. It never
// contains the active context itself.
type Stack struct {
	items []Context
}

// Push puts c on top of the stack.
func (s *Stack) Push(c Context) {
	s.items = append(s.items, c)
}

// Pop removes and returns the top of the stack. ok is false when the stack is
// empty.
func (s *Stack) Pop() (c Context, ok bool) {
	n := len(s.items)
	if n == 0 {
		return nil, false
	}
	c = s.items[n-1]
	s.items[n-1] = nil
	s.items = s.items[:n-1]
	return c, true
}

// Peek returns the top of the stack without removing it.
func (s *Stack) Peek() (Context, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[len(s.items)-1], true
}

// Len returns the number of ancestors.
func (s *Stack) Len() int {
	return len(s.items)
}

// Each calls fn for every entry from the bottom of the stack to the top.
func (s *Stack) Each(fn func(Context)) {
	for _, c := range s.items {
		fn(c)
	}
}
