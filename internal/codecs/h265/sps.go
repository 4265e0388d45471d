// Package h265 contains utilities to work with the H265 codec.
package h265

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/codecs/bits"
)

// emulationPreventionRemove removes emulation prevention bytes,
// turning 0x000003 sequences back into 0x0000.
func emulationPreventionRemove(buf []byte) []byte {
	ret := make([]byte, 0, len(buf))
	zeros := 0

	for _, b := range buf {
		if b == 0x03 && zeros >= 2 {
			zeros = 0
			continue
		}

		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
		ret = append(ret, b)
	}

	return ret
}

// ProfileTierLevel is the profile_tier_level block of a SPS.
type ProfileTierLevel struct {
	ProfileSpace              uint8
	TierFlag                  uint8
	ProfileIdc                uint8
	ProfileCompatibilityFlags uint32
	ProgressiveSourceFlag     bool
	InterlacedSourceFlag      bool
	NonPackedConstraintFlag   bool
	FrameOnlyConstraintFlag   bool
	LevelIdc                  uint8
}

func (p *ProfileTierLevel) unmarshal(r *bits.Reader, maxSubLayersMinus1 uint8) {
	p.ProfileSpace = uint8(r.Read(2))
	p.TierFlag = uint8(r.Read(1))
	p.ProfileIdc = uint8(r.Read(5))
	p.ProfileCompatibilityFlags = uint32(r.Read(32))
	p.ProgressiveSourceFlag = r.ReadFlag()
	p.InterlacedSourceFlag = r.ReadFlag()
	p.NonPackedConstraintFlag = r.ReadFlag()
	p.FrameOnlyConstraintFlag = r.ReadFlag()
	r.Read(32) // general_reserved_zero_44bits
	r.Read(12)
	p.LevelIdc = uint8(r.Read(8))

	profilePresent := make([]bool, maxSubLayersMinus1)
	levelPresent := make([]bool, maxSubLayersMinus1)

	for i := uint8(0); i < maxSubLayersMinus1; i++ {
		profilePresent[i] = r.ReadFlag()
		levelPresent[i] = r.ReadFlag()
	}

	if maxSubLayersMinus1 > 0 {
		for i := maxSubLayersMinus1; i < 8; i++ {
			r.Read(2) // reserved_zero_2bits
		}
	}

	for i := uint8(0); i < maxSubLayersMinus1; i++ {
		if profilePresent[i] {
			r.Read(2)
			r.Read(1)
			r.Read(5)
			r.Read(32)
			r.Read(4)
			r.Read(32) // sub_layer_reserved_zero_44bits
			r.Read(12)
		}
		if levelPresent[i] {
			r.Read(8) // sub_layer_level_idc
		}
	}
}

// SPS is the subset of a H265 sequence parameter set
// needed to compute the coded picture size.
type SPS struct {
	VPSID                  uint8
	MaxSubLayersMinus1     uint8
	TemporalIDNestingFlag  bool
	ProfileTierLevel       ProfileTierLevel
	ChromaFormatIdc        uint32
	PicWidthInLumaSamples  uint32
	PicHeightInLumaSamples uint32
	ConfWinLeftOffset      uint32
	ConfWinRightOffset     uint32
	ConfWinTopOffset       uint32
	ConfWinBottomOffset    uint32
}

// Unmarshal decodes a SPS from its NAL unit form.
func (s *SPS) Unmarshal(buf []byte) error {
	if len(buf) < 2 {
		return fmt.Errorf("not enough bits")
	}

	r := bits.NewReader(emulationPreventionRemove(buf[2:]))

	s.VPSID = uint8(r.Read(4))
	s.MaxSubLayersMinus1 = uint8(r.Read(3))
	s.TemporalIDNestingFlag = r.ReadFlag()

	s.ProfileTierLevel.unmarshal(r, s.MaxSubLayersMinus1)

	r.ReadGolombUnsigned() // sps_seq_parameter_set_id

	s.ChromaFormatIdc = r.ReadGolombUnsigned()
	if s.ChromaFormatIdc == 3 {
		r.ReadFlag() // separate_colour_plane_flag
	}

	s.PicWidthInLumaSamples = r.ReadGolombUnsigned()
	s.PicHeightInLumaSamples = r.ReadGolombUnsigned()

	s.ConfWinLeftOffset = 0
	s.ConfWinRightOffset = 0
	s.ConfWinTopOffset = 0
	s.ConfWinBottomOffset = 0

	if r.ReadFlag() { // conformance_window_flag
		s.ConfWinLeftOffset = r.ReadGolombUnsigned()
		s.ConfWinRightOffset = r.ReadGolombUnsigned()
		s.ConfWinTopOffset = r.ReadGolombUnsigned()
		s.ConfWinBottomOffset = r.ReadGolombUnsigned()
	}

	return r.Err()
}

func (s SPS) horizMult() uint32 {
	if s.ChromaFormatIdc < 3 {
		return 2
	}
	return 1
}

func (s SPS) vertMult() uint32 {
	if s.ChromaFormatIdc < 2 {
		return 2
	}
	return 1
}

// Width returns the video width.
func (s SPS) Width() int {
	return int(s.PicWidthInLumaSamples -
		(s.ConfWinLeftOffset+s.ConfWinRightOffset)*s.horizMult())
}

// Height returns the video height.
func (s SPS) Height() int {
	return int(s.PicHeightInLumaSamples -
		(s.ConfWinTopOffset+s.ConfWinBottomOffset)*s.vertMult())
}
