package message

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// ExtendedSequenceEnd is a sequence end extended message.
type ExtendedSequenceEnd struct {
	MessageStreamID uint32
	FourCC          FourCC
}

func (m *ExtendedSequenceEnd) unmarshal(raw *rawmessage.Message) error {
	if len(raw.Body) != 5 {
		return fmt.Errorf("invalid body size")
	}

	m.MessageStreamID = raw.MessageStreamID

	m.FourCC = FourCC(raw.Body[1])<<24 | FourCC(raw.Body[2])<<16 | FourCC(raw.Body[3])<<8 | FourCC(raw.Body[4])
	switch m.FourCC {
	case FourCCHEVC, FourCCAV1, FourCCVP9:
	default:
		return fmt.Errorf("unsupported fourCC: %v", m.FourCC)
	}

	return nil
}

func (m ExtendedSequenceEnd) marshal() (*rawmessage.Message, error) {
	body := make([]byte, 5)

	body[0] = 0b10000000 | uint8(FrameTypeKey)<<4 | byte(ExtendedTypeSequenceEnd)
	body[1] = uint8(m.FourCC >> 24)
	body[2] = uint8(m.FourCC >> 16)
	body[3] = uint8(m.FourCC >> 8)
	body[4] = uint8(m.FourCC)

	return &rawmessage.Message{
		Type:            uint8(TypeVideo),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
