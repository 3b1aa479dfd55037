// Package codec implements the bijection between a fragment-local
// linear key and an explicit-dimension coordinate tuple.
package codec

import "github.com/sonia-oph/fragreshape/internal/ophierr"

// Decode maps a 1-based linear index id over the explicit
// cross-product of extents to a 1-based coordinate tuple, one entry
// per explicit dimension ordered by logical level (extents[0] is the
// most external explicit dimension).
//
// id must satisfy 1 <= id <= product(extents). The result c satisfies
// 1 <= c[k] <= extents[k] for every k.
func Decode(id int, extents []int) ([]int, error) {
	if len(extents) == 0 {
		return nil, ophierr.New(ophierr.ExecError, "codec: no explicit dimensions")
	}
	tot := 1
	for _, e := range extents {
		if e <= 0 {
			return nil, ophierr.New(ophierr.ExecError, "codec: non-positive extent")
		}
		tot *= e
	}
	if id < 1 || id > tot {
		return nil, ophierr.New(ophierr.ExecError, "codec: id out of range").
			WithDetail("id", id).WithDetail("total", tot)
	}

	c := make([]int, len(extents))
	cur := id - 1
	for k := 0; k < len(extents)-1; k++ {
		tmp := tot / extents[k]
		c[k] = cur/tmp + 1
		cur = cur % tmp
		tot = tmp
	}
	c[len(extents)-1] = cur + 1
	return c, nil
}

// Encode is the inverse of Decode: given a 1-based coordinate tuple it
// returns the 1-based linear index that Decode would have produced.
func Encode(c []int, extents []int) (int, error) {
	if len(c) != len(extents) {
		return 0, ophierr.New(ophierr.ExecError, "codec: tuple/extent length mismatch")
	}
	id := 0
	stride := 1
	for k := len(extents) - 1; k >= 0; k-- {
		if c[k] < 1 || c[k] > extents[k] {
			return 0, ophierr.New(ophierr.ExecError, "codec: coordinate out of range").
				WithDetail("dim", k).WithDetail("value", c[k]).WithDetail("extent", extents[k])
		}
		id += (c[k] - 1) * stride
		stride *= extents[k]
	}
	return id + 1, nil
}
