package message

import (
	"time"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/amf0"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// DataAMF0 is an AMF0 data message.
type DataAMF0 struct {
	DTS             time.Duration
	MessageStreamID uint32
	Payload         amf0.Data
}

func (m *DataAMF0) unmarshal(raw *rawmessage.Message) error {
	m.DTS = raw.Timestamp
	m.MessageStreamID = raw.MessageStreamID

	payload, err := amf0.Unmarshal(raw.Body)
	if err != nil {
		return err
	}
	m.Payload = payload

	return nil
}

func (m DataAMF0) marshal() (*rawmessage.Message, error) {
	body, err := m.Payload.Marshal()
	if err != nil {
		return nil, err
	}

	return &rawmessage.Message{
		Timestamp:       m.DTS,
		Type:            uint8(TypeDataAMF0),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
