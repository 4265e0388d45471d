package message

import (
	"fmt"
	"time"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/rawmessage"
)

// video codecs.
const (
	CodecSorensonH263 = 2
	CodecScreenVideo  = 3
	CodecOn2VP6       = 4
	CodecOn2VP6Alpha  = 5
	CodecScreenVideo2 = 6
	CodecH264         = 7
	CodecH265         = 12
	CodecAV1          = 13
)

// video frame types.
const (
	FrameTypeKey          = 1
	FrameTypeInter        = 2
	FrameTypeDisposable   = 3
	FrameTypeGeneratedKey = 4
	FrameTypeCommand      = 5
)

// VideoType is the packet type of a video message.
type VideoType uint8

// VideoType values.
const (
	VideoTypeConfig VideoType = 0
	VideoTypeAU     VideoType = 1
	VideoTypeEOS    VideoType = 2
)

func videoHasPacketHeader(codec uint8) bool {
	switch codec {
	case CodecH264, CodecH265, CodecAV1:
		return true
	}
	return false
}

// Video is a video message. The frame type and codec are preserved
// as-is, since payloads are forwarded without being decoded; packet
// type and composition time offset are extracted for codecs that
// carry them, because configuration packets receive a special
// treatment.
type Video struct {
	DTS             time.Duration
	MessageStreamID uint32
	FrameType       uint8
	Codec           uint8
	Type            VideoType // only for CodecH264, CodecH265, CodecAV1
	PTSDelta        time.Duration
	Payload         []byte
}

func (m *Video) unmarshal(raw *rawmessage.Message) error {
	m.DTS = raw.Timestamp
	m.MessageStreamID = raw.MessageStreamID

	if len(raw.Body) < 1 {
		return fmt.Errorf("invalid body size")
	}

	m.FrameType = raw.Body[0] >> 4
	m.Codec = raw.Body[0] & 0x0F

	if !videoHasPacketHeader(m.Codec) {
		m.Payload = raw.Body[1:]
		return nil
	}

	if len(raw.Body) < 5 {
		return fmt.Errorf("invalid body size")
	}

	m.Type = VideoType(raw.Body[1])
	switch m.Type {
	case VideoTypeConfig, VideoTypeAU, VideoTypeEOS:
	default:
		return fmt.Errorf("unsupported video message type: %d", m.Type)
	}

	m.PTSDelta = time.Duration(uint32(raw.Body[2])<<16|uint32(raw.Body[3])<<8|uint32(raw.Body[4])) * time.Millisecond

	m.Payload = raw.Body[5:]

	return nil
}

func (m Video) marshalBodySize() int {
	if videoHasPacketHeader(m.Codec) {
		return 5 + len(m.Payload)
	}
	return 1 + len(m.Payload)
}

func (m Video) marshal() (*rawmessage.Message, error) {
	body := make([]byte, m.marshalBodySize())

	body[0] = m.FrameType<<4 | m.Codec

	if videoHasPacketHeader(m.Codec) {
		body[1] = uint8(m.Type)

		tmp := uint32(m.PTSDelta / time.Millisecond)
		body[2] = uint8(tmp >> 16)
		body[3] = uint8(tmp >> 8)
		body[4] = uint8(tmp)

		copy(body[5:], m.Payload)
	} else {
		copy(body[1:], m.Payload)
	}

	return &rawmessage.Message{
		Timestamp:       m.DTS,
		Type:            uint8(TypeVideo),
		MessageStreamID: m.MessageStreamID,
		Body:            body,
	}, nil
}
