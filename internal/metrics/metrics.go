// Package metrics contains the metrics provider.
package metrics

import (
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/masterstream/masterstream/internal/conf"
	"github.com/masterstream/masterstream/internal/defs"
	"github.com/masterstream/masterstream/internal/logger"
	"github.com/masterstream/masterstream/internal/protocols/httpp"
	"github.com/masterstream/masterstream/internal/restrictnetwork"
)

func interfaceIsEmpty(i interface{}) bool {
	return reflect.ValueOf(i).Kind() != reflect.Ptr || reflect.ValueOf(i).IsNil()
}

func metric(key string, tags string, value int64) string {
	return key + tags + " " + strconv.FormatInt(value, 10) + "\n"
}

func tracksLabel(tracks []defs.APIRTMPTrack) string {
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = t.Codec
	}
	return strings.Join(names, "/")
}

type metricsStreamRegistry interface {
	APIStreamsList() *defs.APIRTMPStreamList
}

type metricsRTMPServer interface {
	APIConnsList() (*defs.APIRTMPConnList, error)
}

type metricsParent interface {
	logger.Writer
}

// Metrics is a metrics provider.
type Metrics struct {
	Address      string
	ReadTimeout  conf.Duration
	WriteTimeout conf.Duration
	Parent       metricsParent

	httpServer     *httpp.WrappedServer
	mutex          sync.Mutex
	streamRegistry metricsStreamRegistry
	rtmpServer     metricsRTMPServer
}

// Initialize initializes Metrics.
func (m *Metrics) Initialize() error {
	router := gin.New()
	router.SetTrustedProxies(nil) //nolint:errcheck

	router.GET("/metrics", m.onMetrics)

	network, address := restrictnetwork.Restrict("tcp", m.Address)

	m.httpServer = &httpp.WrappedServer{
		Network:      network,
		Address:      address,
		ReadTimeout:  time.Duration(m.ReadTimeout),
		WriteTimeout: time.Duration(m.WriteTimeout),
		Handler:      router,
		Parent:       m,
	}
	err := m.httpServer.Initialize()
	if err != nil {
		return err
	}

	m.Log(logger.Info, "listener opened on "+address)

	return nil
}

// Close closes Metrics.
func (m *Metrics) Close() {
	m.Log(logger.Info, "listener is closing")
	m.httpServer.Close()
}

// Log implements logger.Writer.
func (m *Metrics) Log(level logger.Level, format string, args ...interface{}) {
	m.Parent.Log(level, "[metrics] "+format, args...)
}

func (m *Metrics) onMetrics(ctx *gin.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := ""

	if !interfaceIsEmpty(m.streamRegistry) {
		data := m.streamRegistry.APIStreamsList()

		for _, i := range data.Items {
			tags := "{app=\"" + i.App + "\",tracks=\"" + tracksLabel(i.Tracks) + "\"}"
			out += metric("rtmp_streams", tags, 1)
			out += metric("rtmp_streams_readers", "{app=\""+i.App+"\"}", int64(i.ReadersCount))
		}
	}

	if !interfaceIsEmpty(m.rtmpServer) {
		data, err := m.rtmpServer.APIConnsList()
		if err == nil {
			for _, i := range data.Items {
				tags := "{id=\"" + i.ID.String() + "\",state=\"" + string(i.State) + "\"}"
				out += metric("rtmp_conns", tags, 1)
				out += metric("rtmp_conns_bytes_received", tags, int64(i.BytesReceived))
				out += metric("rtmp_conns_bytes_sent", tags, int64(i.BytesSent))
			}
		}
	}

	ctx.Writer.WriteHeader(http.StatusOK)
	io.WriteString(ctx.Writer, out) //nolint:errcheck
}

// SetStreamRegistry is called by core.
func (m *Metrics) SetStreamRegistry(s metricsStreamRegistry) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.streamRegistry = s
}

// SetRTMPServer is called by core.
func (m *Metrics) SetRTMPServer(s metricsRTMPServer) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rtmpServer = s
}
