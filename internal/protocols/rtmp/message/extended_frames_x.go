package message

import (
	"fmt"
	"time"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// ExtendedFramesX is a FramesX extended message. It is a CodedFrames
// variant without the composition time offset.
type ExtendedFramesX struct {
	DTS             time.Duration
	MessageStreamID uint32
	FrameType       uint8
	FourCC          FourCC
	Payload         []byte
}

func (m *ExtendedFramesX) unmarshal(raw *rawmessage.Message) error {
	if len(raw.Body) < 5 {
		return fmt.Errorf("invalid body size")
	}

	m.DTS = raw.Timestamp
	m.MessageStreamID = raw.MessageStreamID
	m.FrameType = (raw.Body[0] >> 4) & 0x07

	m.FourCC = FourCC(raw.Body[1])<<24 | FourCC(raw.Body[2])<<16 | FourCC(raw.Body[3])<<8 | FourCC(raw.Body[4])
	switch m.FourCC {
	case FourCCHEVC, FourCCAV1, FourCCVP9:
	default:
		return fmt.Errorf("unsupported fourCC: %v", m.FourCC)
	}

	m.Payload = raw.Body[5:]

	return nil
}

func (m ExtendedFramesX) marshal() (*rawmessage.Message, error) {
	body := make([]byte, 5+len(m.Payload))

	body[0] = 0b10000000 | (m.FrameType&0x07)<<4 | byte(ExtendedTypeFramesX)
	body[1] = uint8(m.FourCC >> 24)
	body[2] = uint8(m.FourCC >> 16)
	body[3] = uint8(m.FourCC >> 8)
	body[4] = uint8(m.FourCC)
	copy(body[5:], m.Payload)

	return &rawmessage.Message{
		Timestamp:       m.DTS,
		Type:            uint8(TypeVideo),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
