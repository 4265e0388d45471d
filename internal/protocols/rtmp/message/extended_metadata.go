package message

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/amf0"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// ExtendedMetadata is a metadata extended message. The payload is
// AMF0-encoded and usually carries HDR color information.
type ExtendedMetadata struct {
	MessageStreamID uint32
	FourCC          FourCC
	Payload         amf0.Data
}

func (m *ExtendedMetadata) unmarshal(raw *rawmessage.Message) error {
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

	payload, err := amf0.Unmarshal(raw.Body[5:])
	if err != nil {
		return err
	}
	m.Payload = payload

	return nil
}

func (m ExtendedMetadata) marshal() (*rawmessage.Message, error) {
	buf, err := m.Payload.Marshal()
	if err != nil {
		return nil, err
	}

	body := make([]byte, 5+len(buf))

	body[0] = 0b10000000 | byte(ExtendedTypeMetadata)
	body[1] = uint8(m.FourCC >> 24)
	body[2] = uint8(m.FourCC >> 16)
	body[3] = uint8(m.FourCC >> 8)
	body[4] = uint8(m.FourCC)
	copy(body[5:], buf)

	return &rawmessage.Message{
		Type:            uint8(TypeVideo),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
