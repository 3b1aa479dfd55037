// Package recordset implements the fixed two-field output of the
// core: an ordered, append-only sequence of (id, payload) rows.
package recordset

// Row is one record: the absolute linear index over the explicit
// cross-product, and the packed implicit-subspace payload.
type Row struct {
	ID      uint64
	Payload []byte
}

// Set is an in-memory, insertion-ordered record set with the fixed
// schema [id: long, payload: blob]. Insertion order equals ascending
// id, which the reader guarantees and which every consumer of this
// type is entitled to rely on.
type Set struct {
	Rows     []Row
	FragSize int // running byte counter across every row appended so far
}

// New allocates a Set with capacity for n rows, the shape the reader
// produces for one fragment.
func New(capacity int) *Set {
	return &Set{Rows: make([]Row, 0, capacity)}
}

// Append adds a row and accumulates its byte footprint into FragSize.
// The caller must append in ascending id order; Append does not
// validate ordering. The reader produces ids in ascending order by
// construction.
func (s *Set) Append(id uint64, payload []byte) {
	s.Rows = append(s.Rows, Row{ID: id, Payload: payload})
	s.FragSize += 8 + len(payload)
}

// Len returns the number of rows currently in the set.
func (s *Set) Len() int { return len(s.Rows) }
