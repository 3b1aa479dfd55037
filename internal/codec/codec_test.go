package codec

import "testing"

func TestDecodeEncodeBijection(t *testing.T) {
	extents := []int{2, 3, 4}
	total := 1
	for _, e := range extents {
		total *= e
	}
	for id := 1; id <= total; id++ {
		c, err := Decode(id, extents)
		if err != nil {
			t.Fatalf("decode(%d): %v", id, err)
		}
		for k, e := range extents {
			if c[k] < 1 || c[k] > e {
				t.Fatalf("decode(%d)[%d]=%d out of range 1..%d", id, k, c[k], e)
			}
		}
		got, err := Encode(c, extents)
		if err != nil {
			t.Fatalf("encode(%v): %v", c, err)
		}
		if got != id {
			t.Fatalf("encode(decode(%d))=%d, want %d", id, got, id)
		}
	}
}

func TestDecodeLexicographicOrder(t *testing.T) {
	extents := []int{2, 2}
	want := [][]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}}
	for i, exp := range want {
		got, err := Decode(i+1, extents)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != exp[0] || got[1] != exp[1] {
			t.Fatalf("decode(%d) = %v, want %v", i+1, got, exp)
		}
	}
}

func TestDecodeOutOfRange(t *testing.T) {
	if _, err := Decode(0, []int{2, 3}); err == nil {
		t.Fatal("expected error for id=0")
	}
	if _, err := Decode(7, []int{2, 3}); err == nil {
		t.Fatal("expected error for id beyond total")
	}
}

func TestDecodeMidRangePartialFragment(t *testing.T) {
	// explicit dims extents [2,3]; fragment rows 4..6.
	extents := []int{2, 3}
	for id := 4; id <= 6; id++ {
		c, err := Decode(id, extents)
		if err != nil {
			t.Fatal(err)
		}
		if c[0] < 1 || c[0] > 2 || c[1] < 1 || c[1] > 3 {
			t.Fatalf("decode(%d)=%v out of bounds", id, c)
		}
	}
}
