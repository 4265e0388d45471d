package rawmessage

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/bytecounter"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/chunk"
)

func chunkHasExtendedTimestamp(c chunk.Chunk, cur bool) bool {
	switch c := c.(type) {
	case *chunk.Chunk0:
		return c.Timestamp >= 0xFFFFFF

	case *chunk.Chunk1:
		return c.TimestampDelta >= 0xFFFFFF

	case *chunk.Chunk2:
		return c.TimestampDelta >= 0xFFFFFF

	default:
		return cur
	}
}

var cases = []struct {
	name     string
	messages []*Message
	chunks   []chunk.Chunk
}{
	{
		"(chunk0) + (chunk1)",
		[]*Message{
			{
				ChunkStreamID:   27,
				Timestamp:       18576 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x03}, 64),
			},
			{
				ChunkStreamID:   27,
				Timestamp:       (18576 + 15) * time.Millisecond,
				Type:            5,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x04}, 64),
			},
		},
		[]chunk.Chunk{
			&chunk.Chunk0{
				ChunkStreamID:   27,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         64,
				Body:            bytes.Repeat([]byte{0x03}, 64),
			},
			&chunk.Chunk1{
				ChunkStreamID:  27,
				TimestampDelta: 15,
				Type:           5,
				BodyLen:        64,
				Body:           bytes.Repeat([]byte{0x04}, 64),
			},
		},
	},
	{
		"(chunk0) + (chunk2) + (chunk3)",
		[]*Message{
			{
				ChunkStreamID:   27,
				Timestamp:       18576 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x03}, 64),
			},
			{
				ChunkStreamID:   27,
				Timestamp:       (18576 + 15) * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x04}, 64),
			},
			{
				ChunkStreamID:   27,
				Timestamp:       (18576 + 15 + 15) * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x05}, 64),
			},
		},
		[]chunk.Chunk{
			&chunk.Chunk0{
				ChunkStreamID:   27,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         64,
				Body:            bytes.Repeat([]byte{0x03}, 64),
			},
			&chunk.Chunk2{
				ChunkStreamID:  27,
				TimestampDelta: 15,
				Body:           bytes.Repeat([]byte{0x04}, 64),
			},
			&chunk.Chunk3{
				ChunkStreamID: 27,
				Body:          bytes.Repeat([]byte{0x05}, 64),
			},
		},
	},
	{
		"(chunk0 + chunk3) + (chunk1 + chunk3) + (chunk2 + chunk3) + (chunk3 + chunk3)",
		[]*Message{
			{
				ChunkStreamID:   27,
				Timestamp:       18576 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x03}, 190),
			},
			{
				ChunkStreamID:   27,
				Timestamp:       18576 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x04}, 192),
			},
			{
				ChunkStreamID:   27,
				Timestamp:       (18576 + 15) * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x05}, 192),
			},
			{
				ChunkStreamID:   27,
				Timestamp:       (18576 + 15 + 15) * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x06}, 192),
			},
		},
		[]chunk.Chunk{
			&chunk.Chunk0{
				ChunkStreamID:   27,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         190,
				Body:            bytes.Repeat([]byte{0x03}, 128),
			},
			&chunk.Chunk3{
				ChunkStreamID: 27,
				Body:          bytes.Repeat([]byte{0x03}, 62),
			},
			&chunk.Chunk1{
				ChunkStreamID:  27,
				TimestampDelta: 0,
				Type:           6,
				BodyLen:        192,
				Body:           bytes.Repeat([]byte{0x04}, 128),
			},
			&chunk.Chunk3{
				ChunkStreamID: 27,
				Body:          bytes.Repeat([]byte{0x04}, 64),
			},
			&chunk.Chunk2{
				ChunkStreamID:  27,
				TimestampDelta: 15,
				Body:           bytes.Repeat([]byte{0x05}, 128),
			},
			&chunk.Chunk3{
				ChunkStreamID: 27,
				Body:          bytes.Repeat([]byte{0x05}, 64),
			},
			&chunk.Chunk3{
				ChunkStreamID: 27,
				Body:          bytes.Repeat([]byte{0x06}, 128),
			},
			&chunk.Chunk3{
				ChunkStreamID: 27,
				Body:          bytes.Repeat([]byte{0x06}, 64),
			},
		},
	},
	{
		"(chunk0 + chunk3 with extended timestamp)",
		[]*Message{
			{
				ChunkStreamID:   27,
				Timestamp:       0xFF123456 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{5}, 160),
			},
		},
		[]chunk.Chunk{
			&chunk.Chunk0{
				ChunkStreamID:   27,
				Timestamp:       4279383126,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         160,
				Body:            bytes.Repeat([]byte{5}, 128),
			},
			&chunk.Chunk3{
				ChunkStreamID: 27,
				Timestamp:     4279383126,
				Body:          bytes.Repeat([]byte{5}, 32),
			},
		},
	},
	{
		"(chunk0 partial) + (chunk0) discards the partial",
		[]*Message{
			{
				ChunkStreamID:   27,
				Timestamp:       18576 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x04}, 64),
			},
		},
		[]chunk.Chunk{
			&chunk.Chunk0{
				ChunkStreamID:   27,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         190,
				Body:            bytes.Repeat([]byte{0x03}, 128),
			},
			&chunk.Chunk0{
				ChunkStreamID:   27,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         64,
				Body:            bytes.Repeat([]byte{0x04}, 64),
			},
		},
	},
	{
		"extended chunk stream IDs",
		[]*Message{
			{
				ChunkStreamID:   70,
				Timestamp:       18576 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3123,
				Body:            bytes.Repeat([]byte{0x03}, 64),
			},
			{
				ChunkStreamID:   340,
				Timestamp:       18576 * time.Millisecond,
				Type:            6,
				MessageStreamID: 3124,
				Body:            bytes.Repeat([]byte{0x04}, 64),
			},
		},
		[]chunk.Chunk{
			&chunk.Chunk0{
				ChunkStreamID:   70,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         64,
				Body:            bytes.Repeat([]byte{0x03}, 64),
			},
			&chunk.Chunk0{
				ChunkStreamID:   340,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3124,
				BodyLen:         64,
				Body:            bytes.Repeat([]byte{0x04}, 64),
			},
		},
	},
}

func TestReader(t *testing.T) {
	for _, ca := range cases {
		t.Run(ca.name, func(t *testing.T) {
			var buf bytes.Buffer
			br := bytecounter.NewReader(&buf)
			r := NewReader(br, br, func(_ uint32) error {
				return nil
			})

			hasExtendedTimestamp := false

			for _, cach := range ca.chunks {
				buf2, err := cach.Marshal(hasExtendedTimestamp)
				require.NoError(t, err)
				buf.Write(buf2)
				hasExtendedTimestamp = chunkHasExtendedTimestamp(cach, hasExtendedTimestamp)
			}

			for _, camsg := range ca.messages {
				msg, err := r.Read()
				require.NoError(t, err)
				require.Equal(t, camsg, msg)
			}
		})
	}
}

func TestReaderAcknowledge(t *testing.T) {
	for _, ca := range []string{"standard", "overflow"} {
		t.Run(ca, func(t *testing.T) {
			onAckCalled := make(chan struct{})

			var buf bytes.Buffer
			bc := bytecounter.NewReader(&buf)
			r := NewReader(bc, bc, func(_ uint32) error {
				close(onAckCalled)
				return nil
			})

			if ca == "overflow" {
				bc.SetCount(4294967096)
				r.lastAckCount = 4294967096
			}

			err := r.SetChunkSize(65536)
			require.NoError(t, err)

			r.SetWindowAckSize(100)

			buf2, err := chunk.Chunk0{
				ChunkStreamID:   27,
				Timestamp:       18576,
				Type:            6,
				MessageStreamID: 3123,
				BodyLen:         200,
				Body:            bytes.Repeat([]byte{0x03}, 200),
			}.Marshal(false)
			require.NoError(t, err)
			buf.Write(buf2)

			_, err = r.Read()
			require.NoError(t, err)

			<-onAckCalled
		})
	}
}

func TestReaderChunkSizeLimits(t *testing.T) {
	var buf bytes.Buffer
	br := bytecounter.NewReader(&buf)
	r := NewReader(br, br, func(_ uint32) error {
		return nil
	})

	err := r.SetChunkSize(127)
	require.EqualError(t, err, "chunk size (127) is below minimum (128)")

	err = r.SetChunkSize(10*1024*1024 + 1)
	require.EqualError(t, err, "chunk size (10485761) exceeds maximum (10485760)")

	err = r.SetChunkSize(128)
	require.NoError(t, err)

	err = r.SetChunkSize(10 * 1024 * 1024)
	require.NoError(t, err)
}

func TestReaderMaxBodySize(t *testing.T) {
	var buf bytes.Buffer
	br := bytecounter.NewReader(&buf)
	r := NewReader(br, br, func(_ uint32) error {
		return nil
	})

	buf2, err := chunk.Chunk0{
		ChunkStreamID:   27,
		Timestamp:       18576,
		Type:            6,
		MessageStreamID: 3123,
		BodyLen:         10485761,
		Body:            bytes.Repeat([]byte{0x03}, 128),
	}.Marshal(false)
	require.NoError(t, err)
	buf.Write(buf2)

	_, err = r.Read()
	require.EqualError(t, err, "body size (10485761) exceeds maximum (10485760)")
}

func TestReaderDiscard(t *testing.T) {
	var buf bytes.Buffer
	br := bytecounter.NewReader(&buf)
	r := NewReader(br, br, func(_ uint32) error {
		return nil
	})

	buf2, err := chunk.Chunk0{
		ChunkStreamID:   27,
		Timestamp:       18576,
		Type:            6,
		MessageStreamID: 3123,
		BodyLen:         190,
		Body:            bytes.Repeat([]byte{0x03}, 128),
	}.Marshal(false)
	require.NoError(t, err)
	buf.Write(buf2)

	buf2, err = chunk.Chunk0{
		ChunkStreamID:   28,
		Timestamp:       18576,
		Type:            6,
		MessageStreamID: 3124,
		BodyLen:         64,
		Body:            bytes.Repeat([]byte{0x04}, 64),
	}.Marshal(false)
	require.NoError(t, err)
	buf.Write(buf2)

	_, err = r.Read()
	require.NoError(t, err)

	rc := r.chunkStreams[27]
	require.Equal(t, uint32(128), rc.curBodyRecv)

	r.Discard(27)

	require.Zero(t, rc.curBodyRecv)
	require.Empty(t, rc.curBodyFragments)
}

func TestReaderStalePartialPurge(t *testing.T) {
	var buf bytes.Buffer
	br := bytecounter.NewReader(&buf)
	r := NewReader(br, br, func(_ uint32) error {
		return nil
	})

	buf2, err := chunk.Chunk0{
		ChunkStreamID:   27,
		Timestamp:       18576,
		Type:            6,
		MessageStreamID: 3123,
		BodyLen:         190,
		Body:            bytes.Repeat([]byte{0x03}, 128),
	}.Marshal(false)
	require.NoError(t, err)
	buf.Write(buf2)

	buf2, err = chunk.Chunk0{
		ChunkStreamID:   28,
		Timestamp:       18576,
		Type:            6,
		MessageStreamID: 3124,
		BodyLen:         64,
		Body:            bytes.Repeat([]byte{0x04}, 64),
	}.Marshal(false)
	require.NoError(t, err)
	buf.Write(buf2)

	_, err = r.Read()
	require.NoError(t, err)

	rc := r.chunkStreams[27]
	require.Equal(t, uint32(128), rc.curBodyRecv)

	rc.lastChunkTime = time.Now().Add(-3 * time.Minute)
	r.lastStaleSweep = time.Now().Add(-3 * time.Minute)

	buf2, err = chunk.Chunk0{
		ChunkStreamID:   28,
		Timestamp:       18591,
		Type:            6,
		MessageStreamID: 3124,
		BodyLen:         64,
		Body:            bytes.Repeat([]byte{0x05}, 64),
	}.Marshal(false)
	require.NoError(t, err)
	buf.Write(buf2)

	_, err = r.Read()
	require.NoError(t, err)

	require.Zero(t, rc.curBodyRecv)
	require.Empty(t, rc.curBodyFragments)
}

func FuzzReader(f *testing.F) {
	f.Fuzz(func(_ *testing.T, b []byte) {
		bcr := bytecounter.NewReader(bytes.NewReader(b))
		r := NewReader(bcr, bcr, func(_ uint32) error {
			return nil
		})

		var buf bytes.Buffer
		bcw := bytecounter.NewWriter(&buf)
		w := NewWriter(bcw, bcw, true)

		for {
			msg, err := r.Read()
			if err == nil {
				w.Write(msg) //nolint:errcheck
			} else {
				break
			}
		}
	})
}
