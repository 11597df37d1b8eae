package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// FrameSize is the fixed size of every frame on the wire.
	FrameSize = 1024
	// NameLen is the width of player and room name fields.
	NameLen = 32
	// MessageLen is the width of message and error text fields.
	MessageLen = 128

	intLen = 4
)

var ErrFieldTooLong = errors.New("field exceeds maximum length")
var ErrFrameOverflow = errors.New("payload exceeds frame size")
var ErrFrameSize = errors.New("buffer is not one frame")

// Writer fills one frame. Writes past the end of the frame or strings longer
// than their field are rejected; nothing is ever truncated.
type Writer struct {
	buf [FrameSize]byte
	off int
	err error
}

func NewWriter(op Opcode) *Writer {
	w := &Writer{}
	w.PutInt(int32(op))
	return w
}

func (w *Writer) PutInt(v int32) {
	if w.err != nil {
		return
	}
	if w.off+intLen > FrameSize {
		w.err = ErrFrameOverflow
		return
	}
	binary.BigEndian.PutUint32(w.buf[w.off:], uint32(v))
	w.off += intLen
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutInt(1)
		return
	}
	w.PutInt(0)
}

// PutString writes s right-padded with zero bytes to exactly max bytes.
func (w *Writer) PutString(s string, max int) {
	if w.err != nil {
		return
	}
	if len(s) > max {
		w.err = fmt.Errorf("%w: %d bytes, max %d", ErrFieldTooLong, len(s), max)
		return
	}
	if w.off+max > FrameSize {
		w.err = ErrFrameOverflow
		return
	}
	copy(w.buf[w.off:], s)
	w.off += max
}

// Bytes returns the finished frame, or the first error hit while writing.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	out := make([]byte, FrameSize)
	copy(out, w.buf[:])
	return out, nil
}

// Reader walks the payload of one frame, positioned after the opcode.
type Reader struct {
	buf []byte
	off int
}

func (r *Reader) Int() int32 {
	if r.off+intLen > len(r.buf) {
		r.off = len(r.buf)
		return 0
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.off:]))
	r.off += intLen
	return v
}

func (r *Reader) Bool() bool { return r.Int() != 0 }

// String reads exactly max bytes and trims trailing zero bytes.
func (r *Reader) String(max int) string {
	end := r.off + max
	if end > len(r.buf) {
		end = len(r.buf)
	}
	field := r.buf[r.off:end]
	r.off = end
	return string(bytes.TrimRight(field, "\x00"))
}

// Open splits a frame into its opcode and a payload reader.
func Open(frame []byte) (Opcode, *Reader, error) {
	if len(frame) != FrameSize {
		return 0, nil, fmt.Errorf("%w: got %d bytes", ErrFrameSize, len(frame))
	}
	r := &Reader{buf: frame}
	op := Opcode(r.Int())
	return op, r, nil
}

// Encode renders m into one frame.
func Encode(m Message) ([]byte, error) {
	w := NewWriter(m.Opcode())
	m.encode(w)
	b, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Opcode(), err)
	}
	return b, nil
}

// Decode parses one frame sent by the server. An opcode outside the table is
// not an error; it comes back as Unknown and the caller decides what to do
// with it.
func Decode(frame []byte) (Message, error) {
	return decodeWith(events, frame)
}

// DecodeRequest parses one frame sent by a client, with the same handling
// of unknown opcodes as Decode.
func DecodeRequest(frame []byte) (Message, error) {
	return decodeWith(requests, frame)
}

func decodeWith(table map[Opcode]func(*Reader) Message, frame []byte) (Message, error) {
	op, r, err := Open(frame)
	if err != nil {
		return nil, err
	}
	decode, ok := table[op]
	if !ok {
		return Unknown{Op: op}, nil
	}
	return decode(r), nil
}

// ReadFrame blocks until one full frame has been read from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	buf := make([]byte, FrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFrame encodes m and writes it to w in a single call.
func WriteFrame(w io.Writer, m Message) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
