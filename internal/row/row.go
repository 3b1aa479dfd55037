// Package row implements the row builder: it materializes one output
// record from a dimension-index scalar and a binary payload,
// optionally compressing the payload, and appends it to a record set.
// It also implements the argument-binding protocol between a query
// template and this builder.
package row

import (
	"encoding/binary"

	"github.com/sonia-oph/fragreshape/internal/ophierr"
	"github.com/sonia-oph/fragreshape/internal/recordset"
)

// ArgType is one of the typed argument-vector cell kinds a query
// template's placeholders can bind.
type ArgType uint8

const (
	Long ArgType = iota
	Double
	String
	Blob
	Null
)

// Arg is one entry of the typed argument vector a query template
// binds against numbered placeholders ?k.
type Arg struct {
	Type   ArgType
	Long   int64
	Double float64
	Str    string
	Blob   []byte
}

// ResolveArg looks up the k-th (0-based) entry of args, the binding a
// template's "?k" placeholder refers to.
func ResolveArg(args []Arg, k int) (Arg, error) {
	if k < 0 || k >= len(args) {
		return Arg{}, ophierr.New(ophierr.ExecError, "placeholder index out of range").
			WithDetail("k", k).WithDetail("nargs", len(args))
	}
	return args[k], nil
}

// EncodeBlob prepends a 4-byte little-endian length prefix to data,
// the wire shape a BLOB argument cell carries.
func EncodeBlob(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)
	return out
}

// DecodeBlob reverses EncodeBlob.
func DecodeBlob(wire []byte) ([]byte, error) {
	if len(wire) < 4 {
		return nil, ophierr.New(ophierr.ExecError, "blob wire value too short for length prefix")
	}
	n := binary.LittleEndian.Uint32(wire)
	if uint64(len(wire)-4) < uint64(n) {
		return nil, ophierr.New(ophierr.ExecError, "blob wire value shorter than declared length")
	}
	return wire[4 : 4+n], nil
}

// CompressFunc is the compression-plugin call site a compressed row
// wraps the payload in. Concrete codecs live outside this module;
// callers inject whichever plugin is configured.
type CompressFunc func(payload []byte) ([]byte, error)

// Builder materializes rows in schema order (id, payload) and appends
// them to a recordset.Set, optionally routing the payload through a
// compression plugin first.
type Builder struct {
	Compressed bool
	Compress   CompressFunc
}

// Append builds one row from idDim and payload and appends it to set,
// accumulating set.FragSize. When b.Compressed is set, payload is
// replaced by b.Compress(payload)'s result before being stored
// (COMPRESSED_VALUE); otherwise it is inlined as-is
// (UNCOMPRESSED_VALUE).
func (b *Builder) Append(set *recordset.Set, idDim uint64, payload []byte) error {
	out := payload
	if b.Compressed {
		if b.Compress == nil {
			return ophierr.New(ophierr.NullParam, "compressed row requested with no compression plugin configured")
		}
		compressed, err := b.Compress(payload)
		if err != nil {
			return ophierr.Wrap(err, ophierr.PluginError, "payload compression failed")
		}
		out = compressed
	}
	set.Append(idDim, out)
	return nil
}
