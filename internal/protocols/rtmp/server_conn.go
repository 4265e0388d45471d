// Package rtmp provides RTMP connectivity.
package rtmp

import (
	"fmt"
	"io"
	"strings"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/amf0"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/bytecounter"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/handshake"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/message"
)

const (
	serverWindowAckSize = 5_000_000
	serverPeerBandwidth = 5_000_000
	defaultOutChunkSize = 4096
	serverVersionString = "MasterStream/8,2"
	serverCapabilities  = 31
)

func splitQuery(v string) (string, string) {
	if i := strings.Index(v, "?"); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

// ServerConn is a server-side RTMP connection.
type ServerConn struct {
	// RW is the underlying reader/writer.
	RW io.ReadWriter

	// OutChunkSize is the chunk size of outgoing messages.
	// It defaults to 4096.
	OutChunkSize uint32

	// MaxMessageSize is the maximum size of incoming messages.
	// It defaults to 10MB.
	MaxMessageSize uint32

	//
	// filled by Initialize
	//

	// App is the application name sent with the connect command.
	App string

	// TcURL is the tcUrl sent with the connect command, if any.
	TcURL string

	//
	// filled by Accept
	//

	// StreamKey is the stream key sent with the publish or play command.
	StreamKey string

	// Query is the raw query attached to the stream key.
	Query string

	// Publish is whether the client wants to publish (true) or play (false).
	Publish bool

	// MessageStreamID is the message stream ID of the publish or play command.
	MessageStreamID uint32

	bc             *bytecounter.ReadWriter
	mrw            *message.ReadWriter
	objectEncoding float64
	streamCount    int
}

// Initialize performs the handshake, reads the connect command and
// replies to it.
func (c *ServerConn) Initialize() error {
	if c.OutChunkSize == 0 {
		c.OutChunkSize = defaultOutChunkSize
	}

	c.bc = bytecounter.NewReadWriter(c.RW)

	err := handshake.DoServer(c.bc)
	if err != nil {
		return err
	}

	c.mrw = message.NewReadWriter(c.bc, c.bc, false)

	if c.MaxMessageSize != 0 {
		c.mrw.SetMaxBodySize(c.MaxMessageSize)
	}

	cmd, err := c.readCommand()
	if err != nil {
		return err
	}

	if cmd.Name != "connect" {
		return fmt.Errorf("unexpected command: %+v", cmd)
	}

	if len(cmd.Arguments) < 1 {
		return fmt.Errorf("invalid connect command: %+v", cmd)
	}

	obj, ok := cmd.Arguments[0].(amf0.Object)
	if !ok {
		return fmt.Errorf("invalid connect command: %+v", cmd)
	}

	app, ok := obj.GetString("app")
	if !ok {
		return fmt.Errorf("invalid connect command: %+v", cmd)
	}

	// some clients attach the stream query to the app name.
	app, _ = splitQuery(app)
	if app == "" {
		return fmt.Errorf("invalid connect command: empty app")
	}
	c.App = app

	c.TcURL, ok = obj.GetString("tcUrl")
	if !ok {
		c.TcURL, _ = obj.GetString("tcurl")
	}

	c.objectEncoding, _ = obj.GetFloat64("objectEncoding")

	err = c.mrw.Write(&message.SetWindowAckSize{
		Value: serverWindowAckSize,
	})
	if err != nil {
		return err
	}

	err = c.mrw.Write(&message.SetPeerBandwidth{
		Value: serverPeerBandwidth,
		Type:  2,
	})
	if err != nil {
		return err
	}

	err = c.mrw.Write(&message.SetChunkSize{
		Value: c.OutChunkSize,
	})
	if err != nil {
		return err
	}

	return c.mrw.Write(&message.CommandAMF0{
		Name:      "_result",
		CommandID: cmd.CommandID,
		Arguments: amf0.Data{
			amf0.Object{
				{Key: "fmsVer", Value: serverVersionString},
				{Key: "capabilities", Value: float64(serverCapabilities)},
				{Key: "objectEncoding", Value: c.objectEncoding},
			},
			amf0.Object{
				{Key: "level", Value: "status"},
				{Key: "code", Value: "NetConnection.Connect.Success"},
				{Key: "description", Value: "Connection succeeded."},
			},
		},
	})
}

func (c *ServerConn) readCommand() (*message.CommandAMF0, error) {
	for {
		msg, err := c.mrw.Read()
		if err != nil {
			return nil, err
		}

		if cmd, ok := msg.(*message.CommandAMF0); ok {
			return cmd, nil
		}
	}
}

// Accept reads commands until the client asks to publish or play a
// stream. The request is left unanswered: the caller is expected to
// validate it and reply with Write.
func (c *ServerConn) Accept() error {
	for {
		cmd, err := c.readCommand()
		if err != nil {
			return err
		}

		switch cmd.Name {
		case "createStream":
			c.streamCount++

			err = c.mrw.Write(&message.CommandAMF0{
				Name:      "_result",
				CommandID: cmd.CommandID,
				Arguments: amf0.Data{
					nil,
					float64(c.streamCount),
				},
			})
			if err != nil {
				return err
			}

		case "publish":
			if len(cmd.Arguments) < 2 {
				return fmt.Errorf("invalid publish command: %+v", cmd)
			}

			key, ok := cmd.Arguments[1].(string)
			if !ok {
				return fmt.Errorf("invalid publish command: %+v", cmd)
			}

			c.StreamKey, c.Query = splitQuery(key)
			c.MessageStreamID = cmd.MessageStreamID
			c.Publish = true
			return nil

		case "play":
			if len(cmd.Arguments) < 2 {
				return fmt.Errorf("invalid play command: %+v", cmd)
			}

			key, ok := cmd.Arguments[1].(string)
			if !ok {
				return fmt.Errorf("invalid play command: %+v", cmd)
			}

			c.StreamKey, c.Query = splitQuery(key)
			c.MessageStreamID = cmd.MessageStreamID
			c.Publish = false
			return nil
		}
	}
}

// BytesReceived returns the number of bytes received.
func (c *ServerConn) BytesReceived() uint64 {
	return c.bc.Reader.Count()
}

// BytesSent returns the number of bytes sent.
func (c *ServerConn) BytesSent() uint64 {
	return c.bc.Writer.Count()
}

// Read reads a message.
func (c *ServerConn) Read() (message.Message, error) {
	return c.mrw.Read()
}

// Write writes a message.
func (c *ServerConn) Write(msg message.Message) error {
	return c.mrw.Write(msg)
}
