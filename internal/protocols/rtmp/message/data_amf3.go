package message

import (
	"fmt"
	"time"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/amf0"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// DataAMF3 is an AMF3 data message. The body starts with a format
// selector byte; when it is zero, the rest is plain AMF0.
type DataAMF3 struct {
	DTS             time.Duration
	MessageStreamID uint32
	Payload         amf0.Data
}

func (m *DataAMF3) unmarshal(raw *rawmessage.Message) error {
	m.DTS = raw.Timestamp
	m.MessageStreamID = raw.MessageStreamID

	if len(raw.Body) < 1 {
		return fmt.Errorf("invalid body size")
	}

	if raw.Body[0] != 0 {
		return fmt.Errorf("unsupported AMF3 encoding")
	}

	payload, err := amf0.Unmarshal(raw.Body[1:])
	if err != nil {
		return err
	}
	m.Payload = payload

	return nil
}

func (m DataAMF3) marshal() (*rawmessage.Message, error) {
	buf, err := m.Payload.Marshal()
	if err != nil {
		return nil, err
	}

	body := make([]byte, 1+len(buf))
	copy(body[1:], buf)

	return &rawmessage.Message{
		Timestamp:       m.DTS,
		Type:            uint8(TypeDataAMF3),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
