package message

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/amf0"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// CommandAMF3 is an AMF3 command message. The body starts with a
// format selector byte; when it is zero, the rest is plain AMF0.
type CommandAMF3 struct {
	MessageStreamID uint32
	Name            string
	CommandID       int
	Arguments       amf0.Data
}

func (m *CommandAMF3) unmarshal(raw *rawmessage.Message) error {
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

	if len(payload) < 2 {
		return fmt.Errorf("invalid command payload")
	}

	var ok bool
	m.Name, ok = payload[0].(string)
	if !ok {
		return fmt.Errorf("invalid command payload")
	}

	tmp, ok := payload[1].(float64)
	if !ok {
		return fmt.Errorf("invalid command payload")
	}
	m.CommandID = int(tmp)

	m.Arguments = payload[2:]

	return nil
}

func (m CommandAMF3) marshal() (*rawmessage.Message, error) {
	data := append(amf0.Data{
		m.Name,
		float64(m.CommandID),
	}, m.Arguments...)

	buf, err := data.Marshal()
	if err != nil {
		return nil, err
	}

	body := make([]byte, 1+len(buf))
	copy(body[1:], buf)

	return &rawmessage.Message{
		Type:            uint8(TypeCommandAMF3),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
