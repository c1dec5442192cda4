package unified

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Well-known item typecodes (ZIP 316). Containers are extensible:
// decoders must carry unrecognized typecodes through without error.
const (
	TypecodeP2PKH   uint64 = 0x00
	TypecodeP2SH    uint64 = 0x01
	TypecodeSapling uint64 = 0x02
	TypecodeOrchard uint64 = 0x03
)

// ErrNoItems is returned when decoding a container with no items.
var ErrNoItems = errors.New("unified container has no items")

// Item is a single typed entry of a unified container.
type Item struct {
	Typecode uint64
	Data     []byte
}

// Container is a decoded unified address or viewing key.
type Container struct {
	Items []Item
}

// Get returns the data of the first item with the given typecode.
func (c *Container) Get(typecode uint64) ([]byte, bool) {
	for _, item := range c.Items {
		if item.Typecode == typecode {
			return item.Data, true
		}
	}
	return nil, false
}

// Encode serializes the container under the given human-readable part.
// Items are sorted into canonical ascending typecode order first.
func Encode(hrp string, items []Item) (string, error) {
	if len(items) == 0 {
		return "", ErrNoItems
	}
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Typecode < sorted[j].Typecode })

	buf := new(bytes.Buffer)
	for _, item := range sorted {
		writeCompactSize(buf, item.Typecode)
		writeCompactSize(buf, uint64(len(item.Data)))
		buf.Write(item.Data)
	}
	buf.Write(hrpPadding(hrp))

	jumbled, err := f4jumble(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("jumbling container: %w", err)
	}

	data, err := bech32.ConvertBits(jumbled, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("converting bits: %w", err)
	}
	encoded, err := bech32.EncodeM(hrp, data)
	if err != nil {
		return "", fmt.Errorf("encoding bech32m: %w", err)
	}
	return encoded, nil
}

// Decode parses a unified container, verifying the bech32m checksum,
// the F4Jumble padding trailer, and that the human-readable part equals
// expectHRP.
func Decode(expectHRP, encoded string) (*Container, error) {
	hrp, data, version, err := bech32.DecodeNoLimitWithVersion(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding bech32: %w", err)
	}
	if version != bech32.VersionM {
		return nil, errors.New("unified containers require the bech32m checksum")
	}
	if hrp != expectHRP {
		return nil, fmt.Errorf("human-readable part %q, want %q", hrp, expectHRP)
	}

	jumbled, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("converting bits: %w", err)
	}
	raw, err := f4jumbleInv(jumbled)
	if err != nil {
		return nil, fmt.Errorf("unjumbling container: %w", err)
	}

	if len(raw) < 16 || !bytes.Equal(raw[len(raw)-16:], hrpPadding(hrp)) {
		return nil, errors.New("bad container padding")
	}
	body := raw[:len(raw)-16]

	c := &Container{}
	r := bytes.NewReader(body)
	seen := make(map[uint64]bool)
	for r.Len() > 0 {
		typecode, err := readCompactSize(r)
		if err != nil {
			return nil, fmt.Errorf("reading typecode: %w", err)
		}
		length, err := readCompactSize(r)
		if err != nil {
			return nil, fmt.Errorf("reading item length: %w", err)
		}
		if length > uint64(r.Len()) {
			return nil, fmt.Errorf("item length %d exceeds remaining %d bytes", length, r.Len())
		}
		if seen[typecode] {
			return nil, fmt.Errorf("duplicate item typecode %d", typecode)
		}
		seen[typecode] = true

		item := Item{Typecode: typecode, Data: make([]byte, length)}
		r.Read(item.Data)
		c.Items = append(c.Items, item)
	}
	if len(c.Items) == 0 {
		return nil, ErrNoItems
	}

	return c, nil
}

// hrpPadding returns the human-readable part zero-padded to 16 bytes,
// the trailer F4Jumble binds the HRP into the jumbled payload with.
func hrpPadding(hrp string) []byte {
	padding := make([]byte, 16)
	copy(padding, hrp)
	return padding
}

func writeCompactSize(buf *bytes.Buffer, n uint64) {
	switch {
	case n < 253:
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(253)
		binary.Write(buf, binary.LittleEndian, uint16(n))
	case n <= 0xFFFFFFFF:
		buf.WriteByte(254)
		binary.Write(buf, binary.LittleEndian, uint32(n))
	default:
		buf.WriteByte(255)
		binary.Write(buf, binary.LittleEndian, n)
	}
}

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
		return uint64(v), nil
	case 254:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	case 255:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return v, nil
	default:
		return uint64(first), nil
	}
}
