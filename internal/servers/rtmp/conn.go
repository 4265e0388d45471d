package rtmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/masterstream/masterstream/internal/conf"
	"github.com/masterstream/masterstream/internal/defs"
	"github.com/masterstream/masterstream/internal/externalcmd"
	"github.com/masterstream/masterstream/internal/hooks"
	"github.com/masterstream/masterstream/internal/logger"
	"github.com/masterstream/masterstream/internal/protocols/rtmp"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/amf0"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/message"
	"github.com/masterstream/masterstream/internal/stream"
)

var errClientUnpublished = errors.New("unpublished by client")

func writeStatus(rconn *rtmp.ServerConn, messageStreamID uint32, level string, code string, description string) error {
	return rconn.Write(&message.CommandAMF0{
		MessageStreamID: messageStreamID,
		Name:            "onStatus",
		Arguments: amf0.Data{
			nil,
			amf0.Object{
				{Key: "level", Value: level},
				{Key: "code", Value: code},
				{Key: "description", Value: description},
			},
		},
	})
}

func legacyVideoCodec(fourCC message.FourCC) uint8 {
	if fourCC == message.FourCCHEVC {
		return message.CodecH265
	}
	return message.CodecAV1
}

// stripSetDataFrame removes the @setDataFrame wrapper that encoders
// prepend when sending metadata, so that readers receive a plain
// onMetaData message.
func stripSetDataFrame(msg *message.DataAMF0) *message.DataAMF0 {
	if len(msg.Payload) != 0 {
		if name, ok := msg.Payload[0].(string); ok && name == "@setDataFrame" {
			return &message.DataAMF0{
				DTS:             msg.DTS,
				MessageStreamID: msg.MessageStreamID,
				Payload:         msg.Payload[1:],
			}
		}
	}
	return msg
}

// messages are shared between all readers of a stream: rewriting the
// message stream ID requires a copy.
func withMessageStreamID(msg message.Message, id uint32) message.Message {
	switch tmsg := msg.(type) {
	case *message.Video:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.Audio:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.DataAMF0:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.ExtendedSequenceStart:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.ExtendedCodedFrames:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.ExtendedFramesX:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.ExtendedSequenceEnd:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.ExtendedMetadata:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone

	case *message.ExtendedMPEG2TSSequenceStart:
		clone := *tmsg
		clone.MessageStreamID = id
		return &clone
	}

	return msg
}

type connState int

const (
	connStateRead connState = iota + 1
	connStatePublish
)

type conn struct {
	parentCtx           context.Context
	readTimeout         conf.Duration
	writeTimeout        conf.Duration
	handshakeTimeout    conf.Duration
	chunkSize           int
	maxMessageSize      conf.StringSize
	writeQueueSize      int
	rtmpAddress         string
	runOnConnect        string
	runOnConnectRestart bool
	runOnDisconnect     string
	runOnPublish        string
	runOnPublishRestart bool
	runOnUnpublish      string
	runOnRead           string
	runOnReadRestart    bool
	runOnUnread         string
	wg                  *sync.WaitGroup
	nconn               net.Conn
	externalCmdPool     *externalcmd.Pool
	registry            *stream.Registry
	parent              *Server

	ctx       context.Context
	ctxCancel func()
	uuid      uuid.UUID
	created   time.Time
	mutex     sync.RWMutex
	rconn     *rtmp.ServerConn
	state     connState
	pathName  string
	query     string
}

func (c *conn) initialize() {
	c.ctx, c.ctxCancel = context.WithCancel(c.parentCtx)

	c.uuid = uuid.New()
	c.created = time.Now()

	c.Log(logger.Info, "opened")

	c.wg.Add(1)
	go c.run()
}

func (c *conn) Close() {
	c.ctxCancel()
}

func (c *conn) remoteAddr() net.Addr {
	return c.nconn.RemoteAddr()
}

// Log implements logger.Writer.
func (c *conn) Log(level logger.Level, format string, args ...interface{}) {
	c.parent.Log(level, "[conn %v] "+format, append([]interface{}{c.nconn.RemoteAddr()}, args...)...)
}

func (c *conn) run() {
	defer c.wg.Done()

	onDisconnectHook := hooks.OnConnect(hooks.OnConnectParams{
		Logger:              c,
		ExternalCmdPool:     c.externalCmdPool,
		RunOnConnect:        c.runOnConnect,
		RunOnConnectRestart: c.runOnConnectRestart,
		RunOnDisconnect:     c.runOnDisconnect,
		RTMPAddress:         c.rtmpAddress,
		ID:                  c.uuid,
	})
	defer onDisconnectHook()

	err := c.runInner()

	c.ctxCancel()

	c.parent.closeConn(c)

	c.Log(logger.Info, "closed: %v", err)
}

func (c *conn) runInner() error {
	readerErr := make(chan error)
	go func() {
		readerErr <- c.runReader()
	}()

	select {
	case err := <-readerErr:
		c.nconn.Close()
		return err

	case <-c.ctx.Done():
		c.nconn.Close()
		<-readerErr
		return errors.New("terminated")
	}
}

func (c *conn) runReader() error {
	c.nconn.SetReadDeadline(time.Now().Add(time.Duration(c.handshakeTimeout)))
	c.nconn.SetWriteDeadline(time.Now().Add(time.Duration(c.handshakeTimeout)))

	rconn := &rtmp.ServerConn{
		RW:             c.nconn,
		OutChunkSize:   uint32(c.chunkSize),
		MaxMessageSize: uint32(c.maxMessageSize),
	}
	err := rconn.Initialize()
	if err != nil {
		return err
	}

	c.mutex.Lock()
	c.rconn = rconn
	c.mutex.Unlock()

	c.nconn.SetReadDeadline(time.Now().Add(time.Duration(c.readTimeout)))
	c.nconn.SetWriteDeadline(time.Now().Add(time.Duration(c.writeTimeout)))

	err = rconn.Accept()
	if err != nil {
		return err
	}

	if rconn.Publish {
		return c.runPublish(rconn)
	}
	return c.runRead(rconn)
}

func (c *conn) runPublish(rconn *rtmp.ServerConn) error {
	if rconn.StreamKey == "" {
		writeStatus(rconn, rconn.MessageStreamID, "error", //nolint:errcheck
			"NetStream.publish.Unauthorized", "Authorization required.")
		return errors.New("empty stream key")
	}

	pathName := rconn.App + "/" + rconn.StreamKey

	strm, err := c.registry.Publish(rconn.App, pathName, c)
	if err != nil {
		writeStatus(rconn, rconn.MessageStreamID, "error", //nolint:errcheck
			"NetStream.Publish.BadName", "Stream already publishing")
		return err
	}

	defer c.registry.Unpublish(strm)

	c.mutex.Lock()
	c.state = connStatePublish
	c.pathName = pathName
	c.query = rconn.Query
	c.mutex.Unlock()

	err = writeStatus(rconn, rconn.MessageStreamID, "status",
		"NetStream.Publish.Start", "/"+pathName+" is now published.")
	if err != nil {
		return err
	}

	c.Log(logger.Info, "is publishing to path '%s'", pathName)

	onUnpublishHook := hooks.OnPublish(hooks.OnPublishParams{
		Logger:              c,
		ExternalCmdPool:     c.externalCmdPool,
		RunOnPublish:        c.runOnPublish,
		RunOnPublishRestart: c.runOnPublishRestart,
		RunOnUnpublish:      c.runOnUnpublish,
		RTMPAddress:         c.rtmpAddress,
		ID:                  c.uuid,
		App:                 rconn.App,
		StreamKey:           rconn.StreamKey,
		Query:               rconn.Query,
	})
	defer onUnpublishHook()

	// disable write deadline to allow outgoing acknowledges
	c.nconn.SetWriteDeadline(time.Time{})

	for {
		c.nconn.SetReadDeadline(time.Now().Add(time.Duration(c.readTimeout)))
		msg, err := rconn.Read()
		if err != nil {
			return err
		}

		err = c.handleMessage(strm, msg)
		if err != nil {
			return err
		}
	}
}

// handleMessage normalizes a publisher message and forwards it to the
// stream. Extended-RTMP messages are converted to their legacy
// counterpart when one exists, so that readers do not have to deal
// with both forms.
func (c *conn) handleMessage(strm *stream.Stream, msg message.Message) error {
	switch tmsg := msg.(type) {
	case *message.Video:
		strm.WriteMessage(tmsg)

	case *message.Audio:
		strm.WriteMessage(tmsg)

	case *message.DataAMF0:
		strm.WriteMessage(stripSetDataFrame(tmsg))

	case *message.DataAMF3:
		strm.WriteMessage(stripSetDataFrame(&message.DataAMF0{
			DTS:             tmsg.DTS,
			MessageStreamID: tmsg.MessageStreamID,
			Payload:         tmsg.Payload,
		}))

	case *message.ExtendedSequenceStart:
		switch tmsg.FourCC {
		case message.FourCCHEVC, message.FourCCAV1:
			strm.WriteMessage(&message.Video{
				MessageStreamID: tmsg.MessageStreamID,
				FrameType:       message.FrameTypeKey,
				Codec:           legacyVideoCodec(tmsg.FourCC),
				Type:            message.VideoTypeConfig,
				Payload:         tmsg.Config,
			})

		default: // no legacy form, forward as-is
			strm.WriteMessage(tmsg)
		}

	case *message.ExtendedCodedFrames:
		switch tmsg.FourCC {
		case message.FourCCHEVC, message.FourCCAV1:
			strm.WriteMessage(&message.Video{
				DTS:             tmsg.DTS,
				MessageStreamID: tmsg.MessageStreamID,
				FrameType:       tmsg.FrameType,
				Codec:           legacyVideoCodec(tmsg.FourCC),
				Type:            message.VideoTypeAU,
				PTSDelta:        tmsg.PTSDelta,
				Payload:         tmsg.Payload,
			})

		default:
			strm.WriteMessage(tmsg)
		}

	case *message.ExtendedFramesX:
		switch tmsg.FourCC {
		case message.FourCCHEVC, message.FourCCAV1:
			strm.WriteMessage(&message.Video{
				DTS:             tmsg.DTS,
				MessageStreamID: tmsg.MessageStreamID,
				FrameType:       tmsg.FrameType,
				Codec:           legacyVideoCodec(tmsg.FourCC),
				Type:            message.VideoTypeAU,
				Payload:         tmsg.Payload,
			})

		default:
			strm.WriteMessage(tmsg)
		}

	case *message.ExtendedSequenceEnd:
		switch tmsg.FourCC {
		case message.FourCCHEVC, message.FourCCAV1:
			strm.WriteMessage(&message.Video{
				MessageStreamID: tmsg.MessageStreamID,
				FrameType:       message.FrameTypeKey,
				Codec:           legacyVideoCodec(tmsg.FourCC),
				Type:            message.VideoTypeEOS,
			})

		default:
			strm.WriteMessage(tmsg)
		}

	case *message.ExtendedMetadata:
		strm.WriteMessage(tmsg)

	case *message.ExtendedMPEG2TSSequenceStart:
		strm.WriteMessage(tmsg)

	case *message.CommandAMF0:
		switch tmsg.Name {
		case "closeStream", "deleteStream", "FCUnpublish":
			return errClientUnpublished
		}

	case *message.CommandAMF3:
		switch tmsg.Name {
		case "closeStream", "deleteStream", "FCUnpublish":
			return errClientUnpublished
		}
	}

	return nil
}

func (c *conn) runRead(rconn *rtmp.ServerConn) error {
	playMessageStreamID := rconn.MessageStreamID

	rd := &stream.Reader{
		QueueSize: c.writeQueueSize,
	}
	rd.Initialize()

	onMessage := func(msg message.Message) error {
		c.nconn.SetWriteDeadline(time.Now().Add(time.Duration(c.writeTimeout)))
		return rconn.Write(withMessageStreamID(msg, playMessageStreamID))
	}

	onUnpublish := func() error {
		c.nconn.SetWriteDeadline(time.Now().Add(time.Duration(c.writeTimeout)))
		writeStatus(rconn, playMessageStreamID, "status", //nolint:errcheck
			"NetStream.Play.UnpublishNotify", "/"+c.safePathName()+" is now unpublished.")
		return errors.New("stream unpublished")
	}

	strm, err := c.registry.AddReader(rconn.App, rd, onMessage, onUnpublish)
	if err != nil {
		writeStatus(rconn, playMessageStreamID, "error", //nolint:errcheck
			"NetStream.Play.BadName", "Stream not found.")
		return err
	}

	defer strm.RemoveReader(rd)

	c.mutex.Lock()
	c.state = connStateRead
	c.pathName = strm.Path()
	c.query = rconn.Query
	c.mutex.Unlock()

	err = rconn.Write(&message.UserControlStreamIsRecorded{
		StreamID: playMessageStreamID,
	})
	if err != nil {
		return err
	}

	err = rconn.Write(&message.UserControlStreamBegin{
		StreamID: playMessageStreamID,
	})
	if err != nil {
		return err
	}

	err = writeStatus(rconn, playMessageStreamID, "status",
		"NetStream.Play.Start", "Started playing stream.")
	if err != nil {
		return err
	}

	c.Log(logger.Info, "is reading from path '%s'", strm.Path())

	onUnreadHook := hooks.OnRead(hooks.OnReadParams{
		Logger:           c,
		ExternalCmdPool:  c.externalCmdPool,
		RunOnRead:        c.runOnRead,
		RunOnReadRestart: c.runOnReadRestart,
		RunOnUnread:      c.runOnUnread,
		RTMPAddress:      c.rtmpAddress,
		ID:               c.uuid,
		App:              rconn.App,
		StreamKey:        rconn.StreamKey,
		Query:            rconn.Query,
	})
	defer onUnreadHook()

	// disable read deadline
	c.nconn.SetReadDeadline(time.Time{})

	rd.Start()
	defer rd.Stop()

	select {
	case <-c.ctx.Done():
		return fmt.Errorf("terminated")

	case err := <-rd.Error():
		return err
	}
}

func (c *conn) safePathName() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.pathName
}

func (c *conn) apiItem() *defs.APIRTMPConn {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	bytesReceived := uint64(0)
	bytesSent := uint64(0)

	if c.rconn != nil {
		bytesReceived = c.rconn.BytesReceived()
		bytesSent = c.rconn.BytesSent()
	}

	return &defs.APIRTMPConn{
		ID:         c.uuid,
		Created:    c.created,
		RemoteAddr: c.remoteAddr().String(),
		State: func() defs.APIRTMPConnState {
			switch c.state {
			case connStateRead:
				return defs.APIRTMPConnStateRead

			case connStatePublish:
				return defs.APIRTMPConnStatePublish

			default:
				return defs.APIRTMPConnStateIdle
			}
		}(),
		Path:          c.pathName,
		Query:         c.query,
		BytesReceived: bytesReceived,
		BytesSent:     bytesSent,
	}
}
