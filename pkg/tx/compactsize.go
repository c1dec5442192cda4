package tx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// readCompactSize reads a Bitcoin-style variable-length integer.
// Non-canonical encodings are rejected; during trial decoding they are
// a strong signal the bytes are not what the candidate layout says.
func readCompactSize(r *bytes.Reader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}

	switch first {
	case 253:
		var v uint16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		if v < 253 {
			return 0, fmt.Errorf("non-canonical compactSize %d", v)
		}
		return uint64(v), nil
	case 254:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		if v <= 0xFFFF {
			return 0, fmt.Errorf("non-canonical compactSize %d", v)
		}
		return uint64(v), nil
	case 255:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		if v <= 0xFFFFFFFF {
			return 0, fmt.Errorf("non-canonical compactSize %d", v)
		}
		return v, nil
	default:
		return uint64(first), nil
	}
}

// readCount reads a compactSize element count and rejects counts that
// cannot fit in the remaining buffer given a minimum element size. This
// keeps trial decoding of garbage bytes from requesting absurd
// allocations.
func readCount(r *bytes.Reader, minElemSize int) (int, error) {
	n, err := readCompactSize(r)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Len())/uint64(minElemSize)+1 {
		return 0, fmt.Errorf("count %d exceeds remaining %d bytes", n, r.Len())
	}
	return int(n), nil
}

// writeCompactSize writes a Bitcoin-style variable-length integer.
func writeCompactSize(w io.Writer, n uint64) {
	switch {
	case n < 253:
		w.Write([]byte{byte(n)})
	case n <= 0xFFFF:
		w.Write([]byte{253})
		binary.Write(w, binary.LittleEndian, uint16(n))
	case n <= 0xFFFFFFFF:
		w.Write([]byte{254})
		binary.Write(w, binary.LittleEndian, uint32(n))
	default:
		w.Write([]byte{255})
		binary.Write(w, binary.LittleEndian, n)
	}
}
