// Package bits contains a bit-level reader for codec configuration records.
package bits

import (
	"fmt"
)

// Reader is a big-endian, MSB-first bit reader over a byte buffer.
// Reads past the end of the buffer set a sticky error and return zero;
// callers check Err once after parsing.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader allocates a Reader.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered by the reader.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Read reads n bits.
func (r *Reader) Read(n int) uint64 {
	if r.err != nil {
		return 0
	}

	if n < 0 || n > 64 {
		r.fail(fmt.Errorf("invalid bit count %d", n))
		return 0
	}

	if n > ((len(r.buf) * 8) - r.pos) {
		r.fail(fmt.Errorf("not enough bits"))
		return 0
	}

	v := uint64(0)

	res := 8 - (r.pos & 0x07)
	if n < res {
		v = uint64((r.buf[r.pos>>0x03] >> (res - n)) & (1<<n - 1))
		r.pos += n
		return v
	}

	v = (v << res) | uint64(r.buf[r.pos>>0x03]&(1<<res-1))
	r.pos += res
	n -= res

	for n >= 8 {
		v = (v << 8) | uint64(r.buf[r.pos>>0x03])
		r.pos += 8
		n -= 8
	}

	if n > 0 {
		v = (v << n) | uint64(r.buf[r.pos>>0x03]>>(8-n))
		r.pos += n
	}

	return v
}

// Look returns the next n bits without advancing.
func (r *Reader) Look(n int) uint64 {
	pos := r.pos
	v := r.Read(n)
	r.pos = pos
	return v
}

// ReadFlag reads a boolean flag.
func (r *Reader) ReadFlag() bool {
	return r.Read(1) == 1
}

// ReadGolombUnsigned reads an unsigned Exp-Golomb value.
func (r *Reader) ReadGolombUnsigned() uint32 {
	if r.err != nil {
		return 0
	}

	leadingZeroBits := uint32(0)

	for {
		if (len(r.buf)*8 - r.pos) == 0 {
			r.fail(fmt.Errorf("not enough bits"))
			return 0
		}

		b := (r.buf[r.pos>>0x03] >> (7 - (r.pos & 0x07))) & 0x01
		r.pos++
		if b != 0 {
			break
		}

		leadingZeroBits++
		if leadingZeroBits > 32 {
			r.fail(fmt.Errorf("invalid exp-golomb value"))
			return 0
		}
	}

	if (len(r.buf)*8 - r.pos) < int(leadingZeroBits) {
		r.fail(fmt.Errorf("not enough bits"))
		return 0
	}

	codeNum := uint32(0)

	for n := leadingZeroBits; n > 0; n-- {
		b := (r.buf[r.pos>>0x03] >> (7 - (r.pos & 0x07))) & 0x01
		r.pos++
		codeNum |= uint32(b) << (n - 1)
	}

	return (1 << leadingZeroBits) - 1 + codeNum
}

// ReadGolombSigned reads a signed Exp-Golomb value.
func (r *Reader) ReadGolombSigned() int32 {
	v := int32(r.ReadGolombUnsigned())
	if (v & 0x01) != 0 {
		return (v + 1) / 2
	}
	return -v / 2
}
