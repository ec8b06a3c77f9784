// Package wire implements the framed, little-endian byte codec the
// connection and block packages build on: fixed-width integers and
// floats, LEB128 varints, length-prefixed and fixed-length strings, and
// the optional per-block compression frame (see compress.go).
//
// The split between Reader and Writer, each a thin wrapper over the
// underlying socket with a deadline applied per primitive operation,
// follows the same shape as the teacher's entryWriter/entryReader split
// (bIO *bufio.Writer next to bAckReader *bufio.Reader) rather than one
// bidirectional type.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/chxdb/chxdb/errs"
)

// readDeadlineSetter and writeDeadlineSetter are implemented by net.Conn;
// Reader/Writer degrade to no
// deadline support when the underlying stream doesn't implement it (e.g. an
// in-memory bytes.Reader used for a decompressed block body).
type readDeadlineSetter interface {
	SetReadDeadline(time.Time) error
}

type writeDeadlineSetter interface {
	SetWriteDeadline(time.Time) error
}

// Reader reads primitive wire values from an underlying byte stream.
type Reader struct {
	r       io.Reader
	dl      readDeadlineSetter
	timeout time.Duration
}

// NewReader wraps r. If r implements SetReadDeadline, SetTimeout will be
// honored on every primitive read.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{r: r}
	if dl, ok := r.(readDeadlineSetter); ok {
		rd.dl = dl
	}
	return rd
}

// SetTimeout sets the per-operation deadline; zero disables deadlines.
func (r *Reader) SetTimeout(d time.Duration) { r.timeout = d }

// Timeout returns the currently configured per-operation deadline.
func (r *Reader) Timeout() time.Duration { return r.timeout }

func (r *Reader) armDeadline() error {
	if r.dl == nil || r.timeout <= 0 {
		return nil
	}
	return r.dl.SetReadDeadline(time.Now().Add(r.timeout))
}

// readFull reads exactly len(buf) bytes, translating a deadline trip into
// errs.Timeout and any other short read into errs.MalformedFrame.
func (r *Reader) readFull(buf []byte) error {
	if err := r.armDeadline(); err != nil {
		return errs.Wrap(errs.Timeout, "arm read deadline", err)
	}
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if isTimeout(err) {
			return errs.Wrap(errs.Timeout, "read timed out", err)
		}
		return errs.Wrap(errs.MalformedFrame, "short read", err)
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	var b [1]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) U16() (uint16, error) {
	var b [2]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) U32() (uint32, error) {
	var b [4]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) U64() (uint64, error) {
	var b [8]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// VarUint reads a LEB128-encoded unsigned integer: 7-bit groups, high bit
// continuation, little-endian group order.
func (r *Reader) VarUint() (uint64, error) {
	var x uint64
	var shift uint
	for i := 0; i < 10; i++ { // 10 groups covers a full uint64
		b, err := r.U8()
		if err != nil {
			return 0, err
		}
		if b < 0x80 {
			if i == 9 && b > 1 {
				return 0, errs.New(errs.MalformedFrame, "varuint overflow")
			}
			x |= uint64(b) << shift
			return x, nil
		}
		x |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, errs.New(errs.MalformedFrame, "varuint too long")
}

// Bytes reads exactly n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errs.New(errs.MalformedFrame, "negative byte count")
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// String reads a varUint length prefix followed by that many raw UTF-8
// bytes.
func (r *Reader) String() (string, error) {
	n, err := r.VarUint()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FixedString reads exactly n bytes and returns them verbatim, including
// any trailing NUL padding — callers that want a trimmed logical value
// must trim it themselves (§4.4).
func (r *Reader) FixedString(n int) ([]byte, error) {
	return r.Bytes(n)
}

// Writer writes primitive wire values to an underlying byte stream.
type Writer struct {
	w       io.Writer
	dl      writeDeadlineSetter
	timeout time.Duration
}

func NewWriter(w io.Writer) *Writer {
	wr := &Writer{w: w}
	if dl, ok := w.(writeDeadlineSetter); ok {
		wr.dl = dl
	}
	return wr
}

func (w *Writer) SetTimeout(d time.Duration) { w.timeout = d }

// Timeout returns the currently configured per-operation deadline.
func (w *Writer) Timeout() time.Duration { return w.timeout }

func (w *Writer) armDeadline() error {
	if w.dl == nil || w.timeout <= 0 {
		return nil
	}
	return w.dl.SetWriteDeadline(time.Now().Add(w.timeout))
}

func (w *Writer) writeAll(buf []byte) error {
	if err := w.armDeadline(); err != nil {
		return errs.Wrap(errs.Timeout, "arm write deadline", err)
	}
	if _, err := w.w.Write(buf); err != nil {
		if isTimeout(err) {
			return errs.Wrap(errs.Timeout, "write timed out", err)
		}
		return errs.Wrap(errs.ConnectionClosed, "write failed", err)
	}
	return nil
}

func (w *Writer) U8(v uint8) error { return w.writeAll([]byte{v}) }
func (w *Writer) I8(v int8) error  { return w.U8(uint8(v)) }

func (w *Writer) U16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return w.writeAll(b[:])
}
func (w *Writer) I16(v int16) error { return w.U16(uint16(v)) }

func (w *Writer) U32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return w.writeAll(b[:])
}
func (w *Writer) I32(v int32) error { return w.U32(uint32(v)) }

func (w *Writer) U64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return w.writeAll(b[:])
}
func (w *Writer) I64(v int64) error { return w.U64(uint64(v)) }

func (w *Writer) F32(v float32) error { return w.U32(math.Float32bits(v)) }
func (w *Writer) F64(v float64) error { return w.U64(math.Float64bits(v)) }

// VarUint writes x as a LEB128 unsigned integer.
func (w *Writer) VarUint(x uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], x)
	return w.writeAll(buf[:n])
}

// WriteBytes writes buf verbatim.
func (w *Writer) WriteBytes(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return w.writeAll(buf)
}

// String writes a varUint length prefix followed by the raw bytes of s.
func (w *Writer) String(s string) error {
	if err := w.VarUint(uint64(len(s))); err != nil {
		return err
	}
	return w.writeAll([]byte(s))
}

// FixedString writes exactly n bytes: s truncated or right-padded with
// 0x00 to fit.
func (w *Writer) FixedString(s []byte, n int) error {
	buf := make([]byte, n)
	copy(buf, s)
	return w.writeAll(buf)
}

// Flush flushes an underlying *bufio.Writer, if any; a no-op otherwise.
func (w *Writer) Flush() error {
	if bw, ok := w.w.(*bufio.Writer); ok {
		return bw.Flush()
	}
	return nil
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	t, ok := err.(timeout)
	return ok && t.Timeout()
}
