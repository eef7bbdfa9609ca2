package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec is a block compression algorithm.
type Codec uint8

const (
	// None stores data raw.
	None Codec = 0
	// LZ4 favors speed.
	LZ4 Codec = 1
	// ZSTD favors ratio.
	ZSTD Codec = 2
)

// HeaderSize is the length of a block header.
const HeaderSize = 17

var (
	// ErrCorruptBlock is returned for blocks whose framing is inconsistent.
	ErrCorruptBlock = errors.New("compress: corrupt block")
	// ErrUnknownCodec is returned for unrecognized codec ids or names.
	ErrUnknownCodec = errors.New("compress: unknown codec")
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps a name ("none", "lz4", "zstd") to a Codec.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func getEncoder() *zstd.Encoder {
	if v := zstdEncoders.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getDecoder() *zstd.Decoder {
	if v := zstdDecoders.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Encode frames data as a block, compressing it with c when that pays off.
func Encode(c Codec, data []byte) ([]byte, error) {
	var packed []byte
	switch c {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case ZSTD:
		enc := getEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoders.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}

	// n == 0 from lz4 means incompressible.
	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*0.9 {
		c, packed = None, data
	}

	out := make([]byte, HeaderSize+len(packed))
	out[0] = byte(c)
	binary.LittleEndian.PutUint64(out[1:], uint64(len(data)))
	binary.LittleEndian.PutUint64(out[9:], uint64(len(packed)))
	copy(out[HeaderSize:], packed)
	return out, nil
}

// Decode returns the raw payload of a block. Raw blocks are returned
// without copying.
func Decode(block []byte) ([]byte, error) {
	if len(block) < HeaderSize {
		return nil, ErrCorruptBlock
	}
	c := Codec(block[0])
	rawSize := binary.LittleEndian.Uint64(block[1:])
	storedSize := binary.LittleEndian.Uint64(block[9:])
	if storedSize != uint64(len(block)-HeaderSize) {
		return nil, ErrCorruptBlock
	}
	stored := block[HeaderSize:]

	switch c {
	case None:
		if storedSize != rawSize {
			return nil, ErrCorruptBlock
		}
		return stored, nil
	case LZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(stored, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
		}
		if uint64(n) != rawSize {
			return nil, ErrCorruptBlock
		}
		return out, nil
	case ZSTD:
		dec := getDecoder()
		defer zstdDecoders.Put(dec)
		out, err := dec.DecodeAll(stored, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
		}
		if uint64(len(out)) != rawSize {
			return nil, ErrCorruptBlock
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

// CodecOf reports the codec recorded in a block header.
func CodecOf(block []byte) (Codec, error) {
	if len(block) < HeaderSize {
		return None, ErrCorruptBlock
	}
	return Codec(block[0]), nil
}
