package imagelist

import "fmt"

// List is an ordered sequence of handles. Every mutating method builds the
// new handle slice first and assigns it last, so a list is never observed
// half spliced.
type List struct {
	handles []Handle
}

// NewList returns a list holding hs in order.
func NewList(hs ...Handle) *List {
	l := &List{}
	l.handles = append(l.handles, hs...)
	return l
}

// Len returns the number of handles.
func (l *List) Len() int {
	return len(l.handles)
}

// Empty reports whether the list has no images.
func (l *List) Empty() bool {
	return len(l.handles) == 0
}

// At returns the handle at position i, which must be in range.
func (l *List) At(i int) Handle {
	return l.handles[i]
}

// First returns the first handle, if any.
func (l *List) First() (Handle, bool) {
	if len(l.handles) == 0 {
		return 0, false
	}
	return l.handles[0], true
}

// Handles returns a copy of the handle slice.
func (l *List) Handles() []Handle {
	out := make([]Handle, len(l.handles))
	copy(out, l.handles)
	return out
}

// Contains reports whether h is in the list.
func (l *List) Contains(h Handle) bool {
	for _, x := range l.handles {
		if x == h {
			return true
		}
	}
	return false
}

// Index resolves a possibly negative index. Negative values count from
// the end, -1 being the last element.
func (l *List) Index(i int) (int, bool) {
	n := len(l.handles)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// Set replaces the whole sequence.
func (l *List) Set(hs []Handle) {
	next := make([]Handle, len(hs))
	copy(next, hs)
	l.handles = next
}

// Append adds hs at the end.
func (l *List) Append(hs ...Handle) {
	next := make([]Handle, 0, len(l.handles)+len(hs))
	next = append(next, l.handles...)
	next = append(next, hs...)
	l.handles = next
}

// Prepend adds hs at the front.
func (l *List) Prepend(hs ...Handle) {
	next := make([]Handle, 0, len(l.handles)+len(hs))
	next = append(next, hs...)
	next = append(next, l.handles...)
	l.handles = next
}

// InsertAt inserts hs before position i. i may equal Len to append.
func (l *List) InsertAt(i int, hs ...Handle) error {
	if i < 0 || i > len(l.handles) {
		return fmt.Errorf("insert position %d out of range [0,%d]", i, len(l.handles))
	}
	next := make([]Handle, 0, len(l.handles)+len(hs))
	next = append(next, l.handles[:i]...)
	next = append(next, hs...)
	next = append(next, l.handles[i:]...)
	l.handles = next
	return nil
}

// RemoveAt removes and returns the handle at position i.
func (l *List) RemoveAt(i int) (Handle, error) {
	if i < 0 || i >= len(l.handles) {
		return 0, fmt.Errorf("remove position %d out of range [0,%d)", i, len(l.handles))
	}
	h := l.handles[i]
	next := make([]Handle, 0, len(l.handles)-1)
	next = append(next, l.handles[:i]...)
	next = append(next, l.handles[i+1:]...)
	l.handles = next
	return h, nil
}

// Replace splices hs in place of the single handle at position i and
// returns the handle it replaced.
func (l *List) Replace(i int, hs ...Handle) (Handle, error) {
	if i < 0 || i >= len(l.handles) {
		return 0, fmt.Errorf("replace position %d out of range [0,%d)", i, len(l.handles))
	}
	old := l.handles[i]
	next := make([]Handle, 0, len(l.handles)-1+len(hs))
	next = append(next, l.handles[:i]...)
	next = append(next, hs...)
	next = append(next, l.handles[i+1:]...)
	l.handles = next
	return old, nil
}

// Swap exchanges positions i and j.
func (l *List) Swap(i, j int) error {
	n := len(l.handles)
	if i < 0 || i >= n || j < 0 || j >= n {
		return fmt.Errorf("swap positions %d,%d out of range [0,%d)", i, j, n)
	}
	next := l.Handles()
	next[i], next[j] = next[j], next[i]
	l.handles = next
	return nil
}

// Reverse reverses the order.
func (l *List) Reverse() {
	n := len(l.handles)
	next := make([]Handle, n)
	for i, h := range l.handles {
		next[n-1-i] = h
	}
	l.handles = next
}

// Split cuts the list before position i and returns the tail; the
// receiver keeps the head.
func (l *List) Split(i int) (*List, error) {
	if i < 0 || i > len(l.handles) {
		return nil, fmt.Errorf("split position %d out of range [0,%d]", i, len(l.handles))
	}
	tail := NewList(l.handles[i:]...)
	head := make([]Handle, i)
	copy(head, l.handles[:i])
	l.handles = head
	return tail, nil
}

// Concat appends every handle of other.
func (l *List) Concat(other *List) {
	l.Append(other.handles...)
}

// Clone returns an independent copy of the handle sequence. The images
// themselves are not duplicated.
func (l *List) Clone() *List {
	return NewList(l.handles...)
}
