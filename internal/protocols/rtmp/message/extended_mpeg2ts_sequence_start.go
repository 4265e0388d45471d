package message

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// ExtendedMPEG2TSSequenceStart is a MPEG2-TS sequence start extended message.
type ExtendedMPEG2TSSequenceStart struct {
	MessageStreamID uint32
	FourCC          FourCC
	Payload         []byte
}

func (m *ExtendedMPEG2TSSequenceStart) unmarshal(raw *rawmessage.Message) error {
	if len(raw.Body) < 5 {
		return fmt.Errorf("invalid body size")
	}

	m.MessageStreamID = raw.MessageStreamID

	m.FourCC = FourCC(raw.Body[1])<<24 | FourCC(raw.Body[2])<<16 | FourCC(raw.Body[3])<<8 | FourCC(raw.Body[4])
	switch m.FourCC {
	case FourCCHEVC, FourCCAV1, FourCCVP9:
	default:
		return fmt.Errorf("unsupported fourCC: %v", m.FourCC)
	}

	m.Payload = raw.Body[5:]

	return nil
}

func (m ExtendedMPEG2TSSequenceStart) marshal() (*rawmessage.Message, error) {
	body := make([]byte, 5+len(m.Payload))

	body[0] = 0b10000000 | byte(ExtendedTypeMPEG2TSSequenceStart)
	body[1] = uint8(m.FourCC >> 24)
	body[2] = uint8(m.FourCC >> 16)
	body[3] = uint8(m.FourCC >> 8)
	body[4] = uint8(m.FourCC)
	copy(body[5:], m.Payload)

	return &rawmessage.Message{
		Type:            uint8(TypeVideo),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
