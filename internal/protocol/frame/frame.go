package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// FixedHeaderLen is the wire size of the per-message header.
	FixedHeaderLen = 24

	Magic   uint32 = 0x4e4c4554
	Version uint16 = 1
)

var (
	ErrShortHeader     = errors.New("frame: short fixed header")
	ErrInvalidMagic    = errors.New("frame: invalid magic")
	ErrVersionMismatch = errors.New("frame: unsupported version")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrNegativeTag     = errors.New("frame: negative message type")
)

// Header is the fixed wire header preceding every message payload.
type Header struct {
	Magic       uint32
	Version     uint16
	Reserved    uint16
	MessageType int64
	PayloadLen  uint64
}

// Message is one complete framed wire message: a type tag plus an
// opaque payload interpreted by the owning subsystem.
type Message struct {
	Type    int64
	Payload []byte
}

// Limits constrains decode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

// ReadMessage reads one framed message off r. io.EOF at a frame
// boundary is returned as-is so callers can distinguish a clean close
// from a truncated header.
func ReadMessage(r io.Reader, limits Limits) (Message, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Message{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Message{}, ErrShortHeader
		}
		return Message{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Message{}, err
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Message{}, ErrPayloadTooLarge
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Message{}, err
		}
	}
	return Message{Type: h.MessageType, Payload: payload}, nil
}

// WriteMessage frames and writes one message to w.
func WriteMessage(w io.Writer, m Message, limits Limits) error {
	if m.Type < 0 {
		return ErrNegativeTag
	}
	payloadLen := uint64(len(m.Payload))
	if payloadLen > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}

	hb := EncodeHeader(Header{
		Magic:       Magic,
		Version:     Version,
		MessageType: m.Type,
		PayloadLen:  payloadLen,
	})
	if _, err := w.Write(hb); err != nil {
		return err
	}
	if payloadLen > 0 {
		if _, err := w.Write(m.Payload); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.Reserved)
	binary.BigEndian.PutUint64(buf[8:16], uint64(h.MessageType))
	binary.BigEndian.PutUint64(buf[16:24], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != FixedHeaderLen {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	h := Header{
		Magic:       binary.BigEndian.Uint32(b[0:4]),
		Version:     binary.BigEndian.Uint16(b[4:6]),
		Reserved:    binary.BigEndian.Uint16(b[6:8]),
		MessageType: int64(binary.BigEndian.Uint64(b[8:16])),
		PayloadLen:  binary.BigEndian.Uint64(b[16:24]),
	}
	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Header{}, ErrVersionMismatch
	}
	if h.MessageType < 0 {
		return Header{}, ErrNegativeTag
	}
	return h, nil
}
