// Package stream contains the stream registry that connects
// publishers to readers.
package stream

import (
	"sync"
	"time"

	"github.com/masterstream/masterstream/internal/defs"
	"github.com/masterstream/masterstream/internal/logger"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/message"
)

// Stream is a published stream. It fans incoming messages out to
// readers and caches stream metadata and codec configurations, which
// are replayed to readers that join mid-stream.
type Stream struct {
	app             string
	path            string
	created         time.Time
	parent          logger.Writer
	parseWarnLogger logger.Writer

	mutex       sync.Mutex
	closed      bool
	metadata    *message.DataAMF0
	audioConfig *message.Audio
	videoConfig *message.Video
	audioTrack  *defs.APIRTMPTrack
	videoTrack  *defs.APIRTMPTrack
	readers     map[*Reader]struct{}
}

// App returns the application name the stream is registered under.
func (s *Stream) App() string {
	return s.app
}

// Path returns the stream path.
func (s *Stream) Path() string {
	return s.path
}

// WriteMessage forwards a message to all readers.
// Metadata and codec configurations are cached on the way.
func (s *Stream) WriteMessage(msg message.Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch tmsg := msg.(type) {
	case *message.Audio:
		if tmsg.Codec == message.CodecMPEG4Audio {
			if tmsg.AACType == message.AudioAACTypeConfig {
				s.audioConfig = tmsg
				s.setAudioTrack(audioTrack(tmsg, s.parseWarnLogger))
			}
		} else if s.audioTrack == nil {
			s.setAudioTrack(audioTrack(tmsg, s.parseWarnLogger))
		}

	case *message.Video:
		if videoIsSequenceHeader(tmsg) {
			s.videoConfig = tmsg
			s.setVideoTrack(videoTrack(tmsg, s.parseWarnLogger))
		} else if s.videoTrack == nil {
			s.setVideoTrack(videoTrack(tmsg, s.parseWarnLogger))
		}

	case *message.DataAMF0:
		if isMetadata(tmsg) {
			s.metadata = tmsg
		}
	}

	for r := range s.readers {
		r.push(func() error { return r.onMessage(msg) })
	}
}

// announce a track the first time it is seen.
func (s *Stream) setAudioTrack(t *defs.APIRTMPTrack) {
	if s.audioTrack == nil {
		s.parent.Log(logger.Info, "audio track: %s", TrackString([]defs.APIRTMPTrack{*t}))
	}
	s.audioTrack = t
}

func (s *Stream) setVideoTrack(t *defs.APIRTMPTrack) {
	if s.videoTrack == nil {
		s.parent.Log(logger.Info, "video track: %s", TrackString([]defs.APIRTMPTrack{*t}))
	}
	s.videoTrack = t
}

func videoIsSequenceHeader(msg *message.Video) bool {
	switch msg.Codec {
	case message.CodecH264, message.CodecH265, message.CodecAV1:
		return msg.Type == message.VideoTypeConfig && msg.FrameType == message.FrameTypeKey
	}
	return false
}

func isMetadata(msg *message.DataAMF0) bool {
	if len(msg.Payload) == 0 {
		return false
	}
	name, ok := msg.Payload[0].(string)
	return ok && name == "onMetaData"
}

func (s *Stream) addReader(r *Reader, onMessage func(message.Message) error, onUnpublish func() error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrStreamNotFound
	}

	r.onMessage = onMessage
	r.onUnpublish = onUnpublish

	// replay cached entries before live messages, so that a reader
	// that joins mid-stream can initialize its decoders.
	if s.metadata != nil {
		msg := s.metadata
		r.push(func() error { return r.onMessage(msg) })
	}
	if s.audioConfig != nil {
		msg := s.audioConfig
		r.push(func() error { return r.onMessage(msg) })
	}
	if s.videoConfig != nil {
		msg := s.videoConfig
		r.push(func() error { return r.onMessage(msg) })
	}

	s.readers[r] = struct{}{}

	return nil
}

// RemoveReader removes a reader.
func (s *Stream) RemoveReader(r *Reader) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.readers, r)
}

func (s *Stream) close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true

	for r := range s.readers {
		r.push(func() error { return r.onUnpublish() })
	}

	s.readers = make(map[*Reader]struct{})
}

func (s *Stream) apiItem() *defs.APIRTMPStream {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var tracks []defs.APIRTMPTrack
	if s.videoTrack != nil {
		tracks = append(tracks, *s.videoTrack)
	}
	if s.audioTrack != nil {
		tracks = append(tracks, *s.audioTrack)
	}

	return &defs.APIRTMPStream{
		App:          s.app,
		Path:         s.path,
		Created:      s.created,
		ReadersCount: len(s.readers),
		Tracks:       tracks,
	}
}

// Tracks returns the track descriptions gathered so far.
func (s *Stream) Tracks() []defs.APIRTMPTrack {
	return s.apiItem().Tracks
}
