package rawmessage

import (
	"fmt"
	"io"
	"time"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/bytecounter"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/chunk"
)

// controlChunkStreamID is the chunk stream on which protocol control
// and user control messages travel.
const controlChunkStreamID = 2

// writerRecord stores the last header written for a message stream.
// Following messages on the same stream are compared against it to
// elect the smallest usable chunk header.
type writerRecord struct {
	chunkStreamID        uint32
	timestamp            uint32
	typ                  uint8
	bodyLen              uint32
	timestampDelta       uint32
	hasTimestampDelta    bool
	hasExtendedTimestamp bool
}

// Writer is a raw message writer.
type Writer struct {
	w                 io.Writer
	bcw               *bytecounter.Writer
	checkAcknowledge  bool
	chunkSize         uint32
	ackWindowSize     uint32
	ackValue          uint32
	records           map[uint32]*writerRecord
	nextChunkStreamID uint32
}

// NewWriter allocates a Writer.
func NewWriter(w io.Writer, bcw *bytecounter.Writer, checkAcknowledge bool) *Writer {
	return &Writer{
		w:                 w,
		bcw:               bcw,
		checkAcknowledge:  checkAcknowledge,
		chunkSize:         128,
		records:           make(map[uint32]*writerRecord),
		nextChunkStreamID: 3,
	}
}

// SetChunkSize sets the maximum chunk size.
func (w *Writer) SetChunkSize(v uint32) {
	w.chunkSize = v
}

// SetWindowAckSize sets the window acknowledgement size.
func (w *Writer) SetWindowAckSize(v uint32) {
	w.ackWindowSize = v
}

// SetAcknowledgeValue sets the value of the last received acknowledge.
func (w *Writer) SetAcknowledgeValue(v uint32) {
	w.ackValue = v
}

func (w *Writer) writeChunk(c chunk.Chunk, hasExtendedTimestamp bool) error {
	// check that sent bytes are being acknowledged
	if w.checkAcknowledge && w.ackWindowSize != 0 {
		diff := uint32(w.bcw.Count()) - w.ackValue

		if diff > (w.ackWindowSize * 2) {
			return fmt.Errorf("no acknowledge received within window")
		}
	}

	buf, err := c.Marshal(hasExtendedTimestamp)
	if err != nil {
		return err
	}

	_, err = w.w.Write(buf)
	return err
}

func (w *Writer) writeMessage(msg *Message, rec *writerRecord, isNew bool) error {
	bodyLen := uint32(len(msg.Body))
	timestamp := uint32(msg.Timestamp / time.Millisecond)
	pos := uint32(0)
	firstChunk := true

	var hasExtendedTimestamp bool
	var extendedTimestamp uint32

	for {
		chunkBodyLen := bodyLen - pos
		if chunkBodyLen > w.chunkSize {
			chunkBodyLen = w.chunkSize
		}

		body := msg.Body[pos : pos+chunkBodyLen]

		if firstChunk {
			firstChunk = false

			switch {
			case isNew || rec.timestamp == 0 || timestamp <= rec.timestamp:
				// full header. also needed whenever the timestamp
				// does not move forward, since deltas are unsigned.
				err := w.writeChunk(&chunk.Chunk0{
					ChunkStreamID:   rec.chunkStreamID,
					Timestamp:       timestamp,
					Type:            msg.Type,
					MessageStreamID: msg.MessageStreamID,
					BodyLen:         bodyLen,
					Body:            body,
				}, false)
				if err != nil {
					return err
				}

				hasExtendedTimestamp = timestamp >= 0xFFFFFF
				extendedTimestamp = timestamp
				rec.hasTimestampDelta = false

			case rec.typ != msg.Type || rec.bodyLen != bodyLen:
				delta := timestamp - rec.timestamp

				err := w.writeChunk(&chunk.Chunk1{
					ChunkStreamID:  rec.chunkStreamID,
					TimestampDelta: delta,
					Type:           msg.Type,
					BodyLen:        bodyLen,
					Body:           body,
				}, false)
				if err != nil {
					return err
				}

				hasExtendedTimestamp = delta >= 0xFFFFFF
				extendedTimestamp = delta
				rec.timestampDelta = delta
				rec.hasTimestampDelta = true

			case !rec.hasTimestampDelta || rec.timestampDelta != (timestamp-rec.timestamp):
				delta := timestamp - rec.timestamp

				err := w.writeChunk(&chunk.Chunk2{
					ChunkStreamID:  rec.chunkStreamID,
					TimestampDelta: delta,
					Body:           body,
				}, false)
				if err != nil {
					return err
				}

				hasExtendedTimestamp = delta >= 0xFFFFFF
				extendedTimestamp = delta
				rec.timestampDelta = delta
				rec.hasTimestampDelta = true

			default:
				// the previous delta applies unchanged.
				hasExtendedTimestamp = rec.hasExtendedTimestamp
				extendedTimestamp = rec.timestampDelta

				err := w.writeChunk(&chunk.Chunk3{
					ChunkStreamID: rec.chunkStreamID,
					Timestamp:     extendedTimestamp,
					Body:          body,
				}, hasExtendedTimestamp)
				if err != nil {
					return err
				}
			}

			rec.timestamp = timestamp
			rec.typ = msg.Type
			rec.bodyLen = bodyLen
			rec.hasExtendedTimestamp = hasExtendedTimestamp
		} else {
			err := w.writeChunk(&chunk.Chunk3{
				ChunkStreamID: rec.chunkStreamID,
				Timestamp:     extendedTimestamp,
				Body:          body,
			}, hasExtendedTimestamp)
			if err != nil {
				return err
			}
		}

		pos += chunkBodyLen

		if (bodyLen - pos) == 0 {
			return nil
		}
	}
}

// Write writes a Message.
func (w *Writer) Write(msg *Message) error {
	// protocol control and user control messages travel on chunk
	// stream 2 with a full header.
	if msg.Type < 8 {
		return w.writeMessage(msg, &writerRecord{chunkStreamID: controlChunkStreamID}, true)
	}

	rec, ok := w.records[msg.MessageStreamID]
	if !ok {
		rec = &writerRecord{chunkStreamID: w.nextChunkStreamID}
		w.nextChunkStreamID++
		w.records[msg.MessageStreamID] = rec
	}

	return w.writeMessage(msg, rec, !ok)
}
