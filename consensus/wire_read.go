package consensus

import "encoding/binary"

func readU32le(b []byte, off *int) (uint32, error) {
	if *off+4 > len(b) {
		return 0, chainerr(BLOCK_ERR_PARSE, "unexpected EOF (u32le)")
	}
	v := binary.LittleEndian.Uint32(b[*off : *off+4])
	*off += 4
	return v, nil
}

func readBytes(b []byte, off *int, n int) ([]byte, error) {
	if n < 0 {
		return nil, chainerr(BLOCK_ERR_PARSE, "negative length")
	}
	if *off+n > len(b) {
		return nil, chainerr(BLOCK_ERR_PARSE, "unexpected EOF (bytes)")
	}
	v := b[*off : *off+n]
	*off += n
	return v, nil
}

func appendU32le(out []byte, v uint32) []byte {
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], v)
	return append(out, tmp4[:]...)
}
