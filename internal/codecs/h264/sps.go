// Package h264 contains utilities to work with the H264 codec.
package h264

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/codecs/bits"
)

// SPS is the subset of a H264 sequence parameter set
// needed to compute the coded picture size.
type SPS struct {
	ProfileIdc                uint8
	ConstraintFlags           uint8
	LevelIdc                  uint8
	ChromaFormatIdc           uint32
	RefFrames                 uint32
	PicWidthInMbsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32
	FrameMbsOnlyFlag          bool
	FrameCropLeftOffset       uint32
	FrameCropRightOffset      uint32
	FrameCropTopOffset        uint32
	FrameCropBottomOffset     uint32
}

// Unmarshal decodes a SPS from its NAL unit form.
// Scaling lists and everything after the frame cropping offsets are
// left unparsed, since they do not contribute to the picture size.
func (s *SPS) Unmarshal(buf []byte) error {
	if len(buf) < 1 || buf[0] != 0x67 {
		return fmt.Errorf("not a SPS")
	}

	r := bits.NewReader(buf[1:])

	s.ProfileIdc = uint8(r.Read(8))
	s.ConstraintFlags = uint8(r.Read(8))
	s.LevelIdc = uint8(r.Read(8))
	r.ReadGolombUnsigned() // seq_parameter_set_id

	s.ChromaFormatIdc = 1

	switch s.ProfileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118:
		s.ChromaFormatIdc = r.ReadGolombUnsigned()
		if s.ChromaFormatIdc == 3 {
			r.ReadFlag() // separate_colour_plane_flag
		}

		r.ReadGolombUnsigned() // bit_depth_luma_minus8
		r.ReadGolombUnsigned() // bit_depth_chroma_minus8
		r.ReadFlag()           // qpprime_y_zero_transform_bypass_flag

		if r.ReadFlag() { // seq_scaling_matrix_present_flag
			n := 8
			if s.ChromaFormatIdc == 3 {
				n = 12
			}
			for i := 0; i < n; i++ {
				r.ReadFlag() // seq_scaling_list_present_flag
			}
		}
	}

	r.ReadGolombUnsigned() // log2_max_frame_num_minus4

	switch r.ReadGolombUnsigned() { // pic_order_cnt_type
	case 0:
		r.ReadGolombUnsigned() // log2_max_pic_order_cnt_lsb_minus4

	case 1:
		r.ReadFlag()           // delta_pic_order_always_zero_flag
		r.ReadGolombUnsigned() // offset_for_non_ref_pic
		r.ReadGolombUnsigned() // offset_for_top_to_bottom_field
		n := r.ReadGolombUnsigned()
		for i := uint32(0); i < n; i++ {
			r.ReadGolombUnsigned() // offset_for_ref_frame
		}
	}

	s.RefFrames = r.ReadGolombUnsigned()
	r.ReadFlag() // gaps_in_frame_num_value_allowed_flag

	s.PicWidthInMbsMinus1 = r.ReadGolombUnsigned()
	s.PicHeightInMapUnitsMinus1 = r.ReadGolombUnsigned()
	s.FrameMbsOnlyFlag = r.ReadFlag()

	if !s.FrameMbsOnlyFlag {
		r.ReadFlag() // mb_adaptive_frame_field_flag
	}

	r.ReadFlag() // direct_8x8_inference_flag

	s.FrameCropLeftOffset = 0
	s.FrameCropRightOffset = 0
	s.FrameCropTopOffset = 0
	s.FrameCropBottomOffset = 0

	if r.ReadFlag() { // frame_cropping_flag
		s.FrameCropLeftOffset = r.ReadGolombUnsigned()
		s.FrameCropRightOffset = r.ReadGolombUnsigned()
		s.FrameCropTopOffset = r.ReadGolombUnsigned()
		s.FrameCropBottomOffset = r.ReadGolombUnsigned()
	}

	return r.Err()
}

// Width returns the video width.
func (s SPS) Width() int {
	return int((s.PicWidthInMbsMinus1+1)*16 -
		(s.FrameCropLeftOffset+s.FrameCropRightOffset)*2)
}

// Height returns the video height.
func (s SPS) Height() int {
	f := uint32(2)
	if s.FrameMbsOnlyFlag {
		f = 1
	}
	return int(f*(s.PicHeightInMapUnitsMinus1+1)*16 -
		(s.FrameCropTopOffset+s.FrameCropBottomOffset)*2)
}

// Level returns the video level.
func (s SPS) Level() float64 {
	return float64(s.LevelIdc) / 10
}
