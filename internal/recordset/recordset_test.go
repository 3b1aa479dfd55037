package recordset

import "testing"

func TestNewAllocatesWithCapacityAndNoRows(t *testing.T) {
	s := New(8)
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
	if cap(s.Rows) != 8 {
		t.Fatalf("cap(Rows) = %d, want 8", cap(s.Rows))
	}
}

func TestAppendAccumulatesFragSize(t *testing.T) {
	s := New(2)
	s.Append(1, []byte{1, 2, 3, 4})
	s.Append(2, []byte{5, 6})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	want := (8 + 4) + (8 + 2)
	if s.FragSize != want {
		t.Fatalf("FragSize = %d, want %d", s.FragSize, want)
	}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	s := New(3)
	s.Append(5, []byte{0})
	s.Append(3, []byte{0})
	s.Append(9, []byte{0})

	want := []uint64{5, 3, 9}
	for i, id := range want {
		if s.Rows[i].ID != id {
			t.Fatalf("row %d id = %d, want %d", i, s.Rows[i].ID, id)
		}
	}
}

func TestAppendStoresPayloadVerbatim(t *testing.T) {
	s := New(1)
	payload := []byte{9, 8, 7}
	s.Append(1, payload)
	got := s.Rows[0].Payload
	if len(got) != len(payload) {
		t.Fatalf("payload length = %d, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("payload[%d] = %d, want %d", i, got[i], payload[i])
		}
	}
}
