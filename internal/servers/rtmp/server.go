// Package rtmp contains a RTMP server.
package rtmp

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/masterstream/masterstream/internal/conf"
	"github.com/masterstream/masterstream/internal/defs"
	"github.com/masterstream/masterstream/internal/externalcmd"
	"github.com/masterstream/masterstream/internal/logger"
	"github.com/masterstream/masterstream/internal/restrictnetwork"
	"github.com/masterstream/masterstream/internal/stream"
)

type serverAPIConnsListRes struct {
	data *defs.APIRTMPConnList
	err  error
}

type serverAPIConnsListReq struct {
	res chan serverAPIConnsListRes
}

type serverParent interface {
	logger.Writer
}

// Server is a RTMP server.
type Server struct {
	Address             string
	ReadTimeout         conf.Duration
	WriteTimeout        conf.Duration
	HandshakeTimeout    conf.Duration
	ChunkSize           int
	MaxMessageSize      conf.StringSize
	WriteQueueSize      int
	RunOnConnect        string
	RunOnConnectRestart bool
	RunOnDisconnect     string
	RunOnPublish        string
	RunOnPublishRestart bool
	RunOnUnpublish      string
	RunOnRead           string
	RunOnReadRestart    bool
	RunOnUnread         string
	ExternalCmdPool     *externalcmd.Pool
	Registry            *stream.Registry
	Parent              serverParent

	ctx       context.Context
	ctxCancel func()
	wg        sync.WaitGroup
	ln        net.Listener
	conns     map[*conn]struct{}

	// in
	chNewConn      chan net.Conn
	chAcceptErr    chan error
	chCloseConn    chan *conn
	chAPIConnsList chan serverAPIConnsListReq
}

// Initialize initializes the server.
func (s *Server) Initialize() error {
	ln, err := net.Listen(restrictnetwork.Restrict("tcp", s.Address))
	if err != nil {
		return err
	}

	s.ctx, s.ctxCancel = context.WithCancel(context.Background())

	s.ln = ln
	s.conns = make(map[*conn]struct{})
	s.chNewConn = make(chan net.Conn)
	s.chAcceptErr = make(chan error)
	s.chCloseConn = make(chan *conn)
	s.chAPIConnsList = make(chan serverAPIConnsListReq)

	s.Log(logger.Info, "listener opened on %s", s.Address)

	l := &listener{
		ln:     s.ln,
		wg:     &s.wg,
		parent: s,
	}
	l.initialize()

	s.wg.Add(1)
	go s.run()

	return nil
}

// Log implements logger.Writer.
func (s *Server) Log(level logger.Level, format string, args ...interface{}) {
	s.Parent.Log(level, "[RTMP] "+format, args...)
}

// Close closes the server.
func (s *Server) Close() {
	s.Log(logger.Info, "listener is closing")
	s.ctxCancel()
	s.wg.Wait()
}

func (s *Server) run() {
	defer s.wg.Done()

outer:
	for {
		select {
		case err := <-s.chAcceptErr:
			s.Log(logger.Error, "%s", err)
			break outer

		case nconn := <-s.chNewConn:
			c := &conn{
				parentCtx:           s.ctx,
				readTimeout:         s.ReadTimeout,
				writeTimeout:        s.WriteTimeout,
				handshakeTimeout:    s.HandshakeTimeout,
				chunkSize:           s.ChunkSize,
				maxMessageSize:      s.MaxMessageSize,
				writeQueueSize:      s.WriteQueueSize,
				rtmpAddress:         s.Address,
				runOnConnect:        s.RunOnConnect,
				runOnConnectRestart: s.RunOnConnectRestart,
				runOnDisconnect:     s.RunOnDisconnect,
				runOnPublish:        s.RunOnPublish,
				runOnPublishRestart: s.RunOnPublishRestart,
				runOnUnpublish:      s.RunOnUnpublish,
				runOnRead:           s.RunOnRead,
				runOnReadRestart:    s.RunOnReadRestart,
				runOnUnread:         s.RunOnUnread,
				wg:                  &s.wg,
				nconn:               nconn,
				externalCmdPool:     s.ExternalCmdPool,
				registry:            s.Registry,
				parent:              s,
			}
			c.initialize()
			s.conns[c] = struct{}{}

		case c := <-s.chCloseConn:
			delete(s.conns, c)

		case req := <-s.chAPIConnsList:
			data := &defs.APIRTMPConnList{
				Items: []*defs.APIRTMPConn{},
			}

			for c := range s.conns {
				data.Items = append(data.Items, c.apiItem())
			}

			sort.Slice(data.Items, func(i, j int) bool {
				return data.Items[i].Created.Before(data.Items[j].Created)
			})

			data.ItemCount = len(data.Items)

			req.res <- serverAPIConnsListRes{data: data}

		case <-s.ctx.Done():
			break outer
		}
	}

	s.ctxCancel()

	s.ln.Close()
}

// newConn is called by listener.
func (s *Server) newConn(conn net.Conn) {
	select {
	case s.chNewConn <- conn:
	case <-s.ctx.Done():
		conn.Close()
	}
}

// acceptError is called by listener.
func (s *Server) acceptError(err error) {
	select {
	case s.chAcceptErr <- err:
	case <-s.ctx.Done():
	}
}

// closeConn is called by conn.
func (s *Server) closeConn(c *conn) {
	select {
	case s.chCloseConn <- c:
	case <-s.ctx.Done():
	}
}

// APIConnsList is called by metrics.
func (s *Server) APIConnsList() (*defs.APIRTMPConnList, error) {
	req := serverAPIConnsListReq{
		res: make(chan serverAPIConnsListRes),
	}

	select {
	case s.chAPIConnsList <- req:
		res := <-req.res
		return res.data, res.err

	case <-s.ctx.Done():
		return nil, fmt.Errorf("terminated")
	}
}
