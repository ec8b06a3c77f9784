package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/chxdb/chxdb/errs"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Method identifies the compression codec wrapping a packet body. Only
// MethodLZ4 is required by §4.2; MethodZSTD is a supplemental, opt-in
// method the real server also understands (see SPEC_FULL.md's Domain
// Stack) — "other method bytes" remain reserved/rejected.
type Method uint8

const (
	MethodLZ4  Method = 0x82
	MethodZSTD Method = 0x90
)

const frameHeaderSize = 16 + 1 + 4 + 4 // checksum + method + compressed size + uncompressed size

// WriteCompressedFrame compresses payload with method and writes the
// framed result: checksum(16) | method(1) | compressed_size(4) |
// uncompressed_size(4) | compressed payload. compressed_size covers the
// method byte and the two size fields plus the payload, matching the
// on-wire definition that compressed_size - 9 is the payload length.
func (w *Writer) WriteCompressedFrame(payload []byte, method Method) error {
	compressed, err := compressBlock(payload, method)
	if err != nil {
		return errs.Wrap(errs.MalformedFrame, "compress packet body", err)
	}

	body := make([]byte, 9+len(compressed))
	body[0] = byte(method)
	binary.LittleEndian.PutUint32(body[1:5], uint32(len(body)))
	binary.LittleEndian.PutUint32(body[5:9], uint32(len(payload)))
	copy(body[9:], compressed)

	lo, hi := CityHash128(body)
	frame := make([]byte, frameHeaderSize+len(body))
	binary.LittleEndian.PutUint64(frame[0:8], lo)
	binary.LittleEndian.PutUint64(frame[8:16], hi)
	copy(frame[16:], body)

	return w.WriteBytes(frame)
}

// ReadCompressedFrame reads one compression frame, verifies its checksum,
// decompresses the payload, and returns a Reader over the decompressed
// bytes so the caller can keep using the same primitive read methods as
// if they had been read directly off the wire (§4.2).
func (r *Reader) ReadCompressedFrame() (*Reader, error) {
	checksum, err := r.Bytes(16)
	if err != nil {
		return nil, err
	}
	method, err := r.U8()
	if err != nil {
		return nil, err
	}
	compressedSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	if compressedSize < 9 {
		return nil, errs.New(errs.MalformedFrame, "compressed size smaller than frame header")
	}
	uncompressedSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	payload, err := r.Bytes(int(compressedSize) - 9)
	if err != nil {
		return nil, err
	}

	body := make([]byte, 9, 9+len(payload))
	body[0] = method
	binary.LittleEndian.PutUint32(body[1:5], compressedSize)
	binary.LittleEndian.PutUint32(body[5:9], uncompressedSize)
	body = append(body, payload...)

	wantLo, wantHi := CityHash128(body)
	gotLo := binary.LittleEndian.Uint64(checksum[0:8])
	gotHi := binary.LittleEndian.Uint64(checksum[8:16])
	if wantLo != gotLo || wantHi != gotHi {
		return nil, errs.New(errs.ChecksumMismatch, "compressed frame checksum mismatch")
	}

	plain, err := decompressBlock(payload, Method(method), int(uncompressedSize))
	if err != nil {
		return nil, errs.Wrap(errs.MalformedFrame, "decompress packet body", err)
	}
	return NewReader(bytes.NewReader(plain)), nil
}

func compressBlock(payload []byte, method Method) ([]byte, error) {
	switch method {
	case MethodLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		var c lz4.Compressor
		n, err := c.CompressBlock(payload, buf)
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	case MethodZSTD:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(payload, nil), nil
	default:
		return nil, errs.New(errs.MalformedFrame, "unsupported compression method")
	}
}

func decompressBlock(payload []byte, method Method, uncompressedSize int) ([]byte, error) {
	switch method {
	case MethodLZ4:
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	case MethodZSTD:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
	default:
		return nil, errs.New(errs.MalformedFrame, "unsupported compression method")
	}
}
