package consensus

import (
	"bytes"
	"testing"
)

func TestReadBytes_NegativeLen(t *testing.T) {
	off := 0
	if _, err := readBytes([]byte{}, &off, -1); CodeOf(err) != BLOCK_ERR_PARSE {
		t.Fatalf("code=%s, want %s", CodeOf(err), BLOCK_ERR_PARSE)
	}
}

func TestReadBytes_UnexpectedEOF(t *testing.T) {
	off := 0
	if _, err := readBytes([]byte{0x01, 0x02}, &off, 3); CodeOf(err) != BLOCK_ERR_PARSE {
		t.Fatalf("code=%s, want %s", CodeOf(err), BLOCK_ERR_PARSE)
	}
	if off != 0 {
		t.Fatalf("offset advanced on error: %d", off)
	}
}

func TestReadU32le(t *testing.T) {
	b := appendU32le(nil, 0x01020304)
	if !bytes.Equal(b, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("appendU32le=%x", b)
	}
	off := 0
	v, err := readU32le(b, &off)
	if err != nil {
		t.Fatalf("readU32le: %v", err)
	}
	if v != 0x01020304 || off != 4 {
		t.Fatalf("v=%x off=%d", v, off)
	}
	if _, err := readU32le(b, &off); CodeOf(err) != BLOCK_ERR_PARSE {
		t.Fatalf("expected parse error, got %v", err)
	}
}
