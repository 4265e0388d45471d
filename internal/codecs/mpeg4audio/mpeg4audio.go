// Package mpeg4audio contains utilities to work with MPEG-4 Audio configurations.
package mpeg4audio

// sampleRates maps a 4-bit sampling frequency index to a rate in Hz.
var sampleRates = [16]int{
	96000, 88200, 64000, 48000,
	44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000,
	7350, 0, 0, 0,
}

// channelCounts maps a 4-bit channel configuration to a channel count.
var channelCounts = [8]int{0, 1, 2, 3, 4, 5, 6, 8}
