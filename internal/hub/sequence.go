package hub

// Sequence hands out delivery ids for one hub. It is not safe for concurrent
// use; the owning Hub guards it.
type Sequence struct {
	next uint64
}

// NewSequence returns a counter whose first id is 1.
func NewSequence() Sequence {
	return Sequence{next: 1}
}

// Next returns the current id and advances the counter.
func (s *Sequence) Next() uint64 {
	n := s.next
	s.next++
	return n
}

// Peek returns the id the next call to Next will return.
func (s *Sequence) Peek() uint64 {
	return s.next
}
