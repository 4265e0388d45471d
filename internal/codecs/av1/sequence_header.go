// Package av1 contains utilities to work with the AV1 codec.
package av1

import (
	"github.com/masterstream/masterstream/internal/codecs/bits"
)

func readUvlc(r *bits.Reader) uint64 {
	n := 0
	for !r.ReadFlag() && r.Err() == nil {
		n++
		if n == 32 {
			return (1 << 32) - 1
		}
	}
	return r.Read(n) + (1 << n) - 1
}

// SequenceHeader is an AV1 sequence header OBU.
type SequenceHeader struct {
	SeqProfile                uint8
	StillPicture              bool
	ReducedStillPictureHeader bool
	SeqLevelIdx               uint8
	FrameWidthBitsMinus1      uint8
	FrameHeightBitsMinus1     uint8
	MaxFrameWidthMinus1       uint32
	MaxFrameHeightMinus1      uint32
}

// Unmarshal decodes a SequenceHeader from the payload of a
// sequence header OBU, up to the maximum frame size fields.
func (h *SequenceHeader) Unmarshal(buf []byte) error {
	r := bits.NewReader(buf)

	h.SeqProfile = uint8(r.Read(3))
	h.StillPicture = r.ReadFlag()
	h.ReducedStillPictureHeader = r.ReadFlag()

	if h.ReducedStillPictureHeader {
		h.SeqLevelIdx = uint8(r.Read(5))
	} else {
		var decoderModelInfoPresent bool
		var bufferDelayLength int

		if r.ReadFlag() { // timing_info_present_flag
			r.Read(32) // num_units_in_display_tick
			r.Read(32) // time_scale
			if r.ReadFlag() { // equal_picture_interval
				readUvlc(r) // num_ticks_per_picture_minus_1
			}

			decoderModelInfoPresent = r.ReadFlag()
			if decoderModelInfoPresent {
				bufferDelayLength = int(r.Read(5)) + 1
				r.Read(32) // num_units_in_decoding_tick
				r.Read(5)  // buffer_removal_time_length_minus_1
				r.Read(5)  // frame_presentation_time_length_minus_1
			}
		}

		initialDisplayDelayPresent := r.ReadFlag()
		opCount := int(r.Read(5)) + 1

		for i := 0; i < opCount; i++ {
			r.Read(12) // operating_point_idc
			levelIdx := uint8(r.Read(5))
			if i == 0 {
				h.SeqLevelIdx = levelIdx
			}
			if levelIdx > 7 {
				r.ReadFlag() // seq_tier
			}
			if decoderModelInfoPresent {
				if r.ReadFlag() { // decoder_model_present_for_this_op
					r.Read(bufferDelayLength) // decoder_buffer_delay
					r.Read(bufferDelayLength) // encoder_buffer_delay
					r.ReadFlag()              // low_delay_mode_flag
				}
			}
			if initialDisplayDelayPresent {
				if r.ReadFlag() { // initial_display_delay_present_for_this_op
					r.Read(4) // initial_display_delay_minus_1
				}
			}
		}
	}

	h.FrameWidthBitsMinus1 = uint8(r.Read(4))
	h.FrameHeightBitsMinus1 = uint8(r.Read(4))
	h.MaxFrameWidthMinus1 = uint32(r.Read(int(h.FrameWidthBitsMinus1) + 1))
	h.MaxFrameHeightMinus1 = uint32(r.Read(int(h.FrameHeightBitsMinus1) + 1))

	return r.Err()
}

// Width returns the video width.
func (h SequenceHeader) Width() int {
	return int(h.MaxFrameWidthMinus1) + 1
}

// Height returns the video height.
func (h SequenceHeader) Height() int {
	return int(h.MaxFrameHeightMinus1) + 1
}
