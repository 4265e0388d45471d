package stream

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/codecs/av1"
	"github.com/masterstream/masterstream/internal/codecs/h264"
	"github.com/masterstream/masterstream/internal/codecs/h265"
	"github.com/masterstream/masterstream/internal/codecs/mpeg4audio"
	"github.com/masterstream/masterstream/internal/defs"
	"github.com/masterstream/masterstream/internal/logger"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/message"
)

var audioCodecNames = map[uint8]string{
	message.CodecADPCM:          "ADPCM",
	message.CodecMPEG1Audio:     "MP3",
	message.CodecLPCM:           "LPCM",
	message.CodecNellymoser16:   "Nellymoser 16 kHz",
	message.CodecNellymoser8:    "Nellymoser 8 kHz",
	message.CodecNellymoser:     "Nellymoser",
	message.CodecPCMA:           "G711 A-law",
	message.CodecPCMU:           "G711 mu-law",
	message.CodecMPEG4Audio:     "AAC",
	message.CodecSpeex:          "Speex",
	message.CodecOpus:           "Opus",
	message.CodecMPEG1Audio8:    "MP3 8 kHz",
	message.CodecDeviceSpecific: "Device-specific",
}

var videoCodecNames = map[uint8]string{
	message.CodecSorensonH263: "Sorenson H263",
	message.CodecScreenVideo:  "Screen Video",
	message.CodecOn2VP6:       "On2 VP6",
	message.CodecOn2VP6Alpha:  "On2 VP6 Alpha",
	message.CodecScreenVideo2: "Screen Video 2",
	message.CodecH264:         "H264",
	message.CodecH265:         "H265",
	message.CodecAV1:          "AV1",
}

// indexed by the sound rate bits of the audio message header.
var audioSoundRates = []int{5512, 11025, 22050, 44100}

func audioCodecName(codec uint8) string {
	if n, ok := audioCodecNames[codec]; ok {
		return n
	}
	return fmt.Sprintf("unknown (%d)", codec)
}

func videoCodecName(codec uint8) string {
	if n, ok := videoCodecNames[codec]; ok {
		return n
	}
	return fmt.Sprintf("unknown (%d)", codec)
}

// audioTrack builds the description of an audio track.
// With AAC, the message header rate and channel count are placeholders;
// the real values come from the AudioSpecificConfig.
func audioTrack(msg *message.Audio, parent logger.Writer) *defs.APIRTMPTrack {
	t := &defs.APIRTMPTrack{
		Type:       "audio",
		Codec:      audioCodecName(msg.Codec),
		SampleRate: audioSoundRates[msg.Rate],
		Channels:   1,
	}
	if msg.IsStereo {
		t.Channels = 2
	}

	if msg.Codec == message.CodecMPEG4Audio && msg.AACType == message.AudioAACTypeConfig {
		var conf mpeg4audio.AudioSpecificConfig
		err := conf.Unmarshal(msg.Payload)
		if err != nil {
			parent.Log(logger.Warn, "unable to parse audio configuration: %v", err)
			return t
		}

		t.Profile = conf.ProfileString()
		t.SampleRate = conf.SampleRate
		t.Channels = conf.ChannelCount
	}

	return t
}

// videoTrack builds the description of a video track.
// Profile, level and size are filled when the message is a parsable
// sequence header.
func videoTrack(msg *message.Video, parent logger.Writer) *defs.APIRTMPTrack {
	t := &defs.APIRTMPTrack{
		Type:  "video",
		Codec: videoCodecName(msg.Codec),
	}

	if msg.Type != message.VideoTypeConfig {
		return t
	}

	switch msg.Codec {
	case message.CodecH264:
		var conf h264.Config
		err := conf.Unmarshal(msg.Payload)
		if err != nil {
			parent.Log(logger.Warn, "unable to parse video configuration: %v", err)
			return t
		}

		t.Profile = conf.ProfileName()
		t.Level = conf.Level()
		t.Width = conf.Width()
		t.Height = conf.Height()

	case message.CodecH265:
		var conf h265.Config
		err := conf.Unmarshal(msg.Payload)
		if err != nil {
			parent.Log(logger.Warn, "unable to parse video configuration: %v", err)
			return t
		}

		t.Profile = conf.ProfileName()
		t.Level = conf.Level()
		t.Width = conf.Width()
		t.Height = conf.Height()

	case message.CodecAV1:
		var conf av1.Config
		err := conf.Unmarshal(msg.Payload)
		if err != nil {
			parent.Log(logger.Warn, "unable to parse video configuration: %v", err)
			return t
		}

		t.Profile = conf.ProfileName()
		t.Level = conf.Level()
		t.Width = conf.Width()
		t.Height = conf.Height()
	}

	return t
}

// TrackString returns a compact human-readable description of tracks,
// for logging.
func TrackString(tracks []defs.APIRTMPTrack) string {
	ret := ""
	for i, t := range tracks {
		if i > 0 {
			ret += ", "
		}
		ret += t.Codec
		switch {
		case t.Width > 0:
			ret += fmt.Sprintf(" %dx%d", t.Width, t.Height)
		case t.SampleRate > 0:
			ret += fmt.Sprintf(" %d/%dch", t.SampleRate, t.Channels)
		}
	}
	return ret
}
