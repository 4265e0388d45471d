package message

import (
	"errors"
	"fmt"
	"io"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/bytecounter"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// errUnhandled marks messages that are legal but not modeled.
// They are read and discarded instead of terminating the session.
var errUnhandled = errors.New("unhandled message")

func allocateMessage(raw *rawmessage.Message) (Message, error) {
	switch Type(raw.Type) {
	case TypeSetChunkSize:
		return &SetChunkSize{}, nil

	case TypeAbort:
		return &Abort{}, nil

	case TypeAcknowledge:
		return &Acknowledge{}, nil

	case TypeSetWindowAckSize:
		return &SetWindowAckSize{}, nil

	case TypeSetPeerBandwidth:
		return &SetPeerBandwidth{}, nil

	case TypeUserControl:
		if len(raw.Body) < 2 {
			return nil, fmt.Errorf("invalid body size")
		}

		userControlType := UserControlType(uint16(raw.Body[0])<<8 | uint16(raw.Body[1]))

		switch userControlType {
		case UserControlTypeStreamBegin:
			return &UserControlStreamBegin{}, nil

		case UserControlTypeStreamEOF:
			return &UserControlStreamEOF{}, nil

		case UserControlTypeStreamDry:
			return &UserControlStreamDry{}, nil

		case UserControlTypeSetBufferLength:
			return &UserControlSetBufferLength{}, nil

		case UserControlTypeStreamIsRecorded:
			return &UserControlStreamIsRecorded{}, nil

		case UserControlTypePingRequest:
			return &UserControlPingRequest{}, nil

		case UserControlTypePingResponse:
			return &UserControlPingResponse{}, nil

		default:
			return nil, errUnhandled
		}

	case TypeAudio:
		return &Audio{}, nil

	case TypeVideo:
		if len(raw.Body) < 1 {
			return nil, fmt.Errorf("invalid body size")
		}

		if (raw.Body[0] & 0b10000000) != 0 {
			if len(raw.Body) < 5 {
				return nil, fmt.Errorf("invalid body size")
			}

			extendedType := ExtendedType(raw.Body[0] & 0x0F)

			switch extendedType {
			case ExtendedTypeSequenceStart:
				return &ExtendedSequenceStart{}, nil

			case ExtendedTypeCodedFrames:
				return &ExtendedCodedFrames{}, nil

			case ExtendedTypeSequenceEnd:
				return &ExtendedSequenceEnd{}, nil

			case ExtendedTypeFramesX:
				return &ExtendedFramesX{}, nil

			case ExtendedTypeMetadata:
				return &ExtendedMetadata{}, nil

			case ExtendedTypeMPEG2TSSequenceStart:
				return &ExtendedMPEG2TSSequenceStart{}, nil

			default:
				return nil, fmt.Errorf("invalid extended type: %v", extendedType)
			}
		}
		return &Video{}, nil

	case TypeDataAMF0:
		return &DataAMF0{}, nil

	case TypeDataAMF3:
		return &DataAMF3{}, nil

	case TypeCommandAMF0:
		return &CommandAMF0{}, nil

	case TypeCommandAMF3:
		return &CommandAMF3{}, nil

	default:
		if raw.Type <= maxType {
			return nil, errUnhandled
		}
		return nil, fmt.Errorf("invalid message type: %v", raw.Type)
	}
}

// Reader is a message reader.
type Reader struct {
	r *rawmessage.Reader
}

// NewReader allocates a Reader.
func NewReader(
	r io.Reader,
	bcr *bytecounter.Reader,
	onAckNeeded func(uint32) error,
) *Reader {
	return &Reader{
		r: rawmessage.NewReader(r, bcr, onAckNeeded),
	}
}

// SetMaxBodySize sets the maximum message body size.
func (r *Reader) SetMaxBodySize(v uint32) {
	r.r.SetMaxBodySize(v)
}

// Read reads a Message.
func (r *Reader) Read() (Message, error) {
	for {
		raw, err := r.r.Read()
		if err != nil {
			return nil, err
		}

		msg, err := allocateMessage(raw)
		if err != nil {
			if errors.Is(err, errUnhandled) {
				continue
			}
			return nil, err
		}

		err = msg.unmarshal(raw)
		if err != nil {
			return nil, err
		}

		switch tmsg := msg.(type) {
		case *SetChunkSize:
			err = r.r.SetChunkSize(tmsg.Value)
			if err != nil {
				return nil, err
			}

		case *Abort:
			r.r.Discard(tmsg.ChunkStreamID)

		case *SetWindowAckSize:
			r.r.SetWindowAckSize(tmsg.Value)
		}

		return msg, nil
	}
}
