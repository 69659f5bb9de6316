package comm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind distinguishes payload frames from control frames.
type Kind uint8

const (
	// KindData carries a point-to-point or collective payload.
	KindData Kind = iota
	// KindAbort tells the receiver that the sender aborted the world; Tag holds the code.
	KindAbort
	// KindAck closes a transport stream.
	KindAck
)

// Frame is the unit every transport moves between ranks.
//
// Src is the sender's WORLD rank, Context the communicator id, Tag the
// message tag. Receivers match on (Context, Src, Tag) and, per key, frames
// are delivered in the order they were sent.
type Frame struct {
	Kind    Kind
	Src     int
	Tag     int
	Context string
	Payload []byte
}

// frameHeader is kind(1) + src(4) + tag(4) + ctxLen(2).
const frameHeader = 1 + 4 + 4 + 2

// MarshalBinary encodes the frame as a little-endian header followed by the
// context id and the payload.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if len(f.Context) > math.MaxUint16 {
		return nil, fmt.Errorf("context id of %d bytes: %w", len(f.Context), ErrBadFrame)
	}
	buf := make([]byte, frameHeader+len(f.Context)+len(f.Payload))
	buf[0] = byte(f.Kind)
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(f.Src)))
	binary.LittleEndian.PutUint32(buf[5:], uint32(int32(f.Tag)))
	binary.LittleEndian.PutUint16(buf[9:], uint16(len(f.Context)))
	n := copy(buf[frameHeader:], f.Context)
	copy(buf[frameHeader+n:], f.Payload)

	return buf, nil
}

// UnmarshalBinary decodes data into f. The payload is copied, so data may be
// reused by the caller afterwards.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < frameHeader {
		return fmt.Errorf("%d bytes: %w", len(data), ErrBadFrame)
	}
	ctxLen := int(binary.LittleEndian.Uint16(data[9:]))
	if len(data) < frameHeader+ctxLen {
		return fmt.Errorf("context of %d bytes in %d: %w", ctxLen, len(data), ErrBadFrame)
	}
	f.Kind = Kind(data[0])
	f.Src = int(int32(binary.LittleEndian.Uint32(data[1:])))
	f.Tag = int(int32(binary.LittleEndian.Uint32(data[5:])))
	f.Context = string(data[frameHeader : frameHeader+ctxLen])
	f.Payload = append([]byte(nil), data[frameHeader+ctxLen:]...)

	return nil
}

// ---------- payload codecs (row-major, little-endian) ----------

// EncodeFloat32s returns the little-endian bytes of src.
func EncodeFloat32s(src []float32) []byte {
	buf := make([]byte, 4*len(src))
	for i, v := range src {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}

	return buf
}

// DecodeFloat32s fills dst from payload; lengths must match exactly.
func DecodeFloat32s(dst []float32, payload []byte) error {
	if len(payload) != 4*len(dst) {
		return fmt.Errorf("%d bytes into %d floats: %w", len(payload), len(dst), ErrCountMismatch)
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}

	return nil
}

func encodeFloat64(v float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
}

func decodeFloat64(payload []byte) (float64, error) {
	if len(payload) != 8 {
		return 0, fmt.Errorf("%d bytes into float64: %w", len(payload), ErrCountMismatch)
	}

	return math.Float64frombits(binary.LittleEndian.Uint64(payload)), nil
}

func encodeInts(vs ...int) []byte {
	buf := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(v)))
	}

	return buf
}

func decodeInts(payload []byte) ([]int, error) {
	if len(payload)%8 != 0 {
		return nil, fmt.Errorf("%d bytes into int64s: %w", len(payload), ErrCountMismatch)
	}
	out := make([]int, len(payload)/8)
	for i := range out {
		out[i] = int(int64(binary.LittleEndian.Uint64(payload[8*i:])))
	}

	return out, nil
}
