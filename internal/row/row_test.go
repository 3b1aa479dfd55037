package row

import (
	"bytes"
	"testing"

	"github.com/sonia-oph/fragreshape/internal/recordset"
)

func TestBlobRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	wire := EncodeBlob(data)
	got, err := DecodeBlob(wire)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %v, want %v", got, data)
	}
}

func TestBuilderUncompressedAppend(t *testing.T) {
	set := recordset.New(1)
	b := &Builder{}
	if err := b.Append(set, 1, []byte{9, 9}); err != nil {
		t.Fatal(err)
	}
	if set.Len() != 1 || !bytes.Equal(set.Rows[0].Payload, []byte{9, 9}) {
		t.Fatalf("unexpected row: %+v", set.Rows)
	}
}

func TestBuilderCompressedMissingPlugin(t *testing.T) {
	set := recordset.New(1)
	b := &Builder{Compressed: true}
	if err := b.Append(set, 1, []byte{1}); err == nil {
		t.Fatal("expected NullParam error when no compression plugin is configured")
	}
}
