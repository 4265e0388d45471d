package metrics

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/masterstream/masterstream/internal/conf"
	"github.com/masterstream/masterstream/internal/defs"
	"github.com/masterstream/masterstream/internal/test"
)

type dummyStreamRegistry struct{}

func (dummyStreamRegistry) APIStreamsList() *defs.APIRTMPStreamList {
	return &defs.APIRTMPStreamList{
		ItemCount: 1,
		Items: []*defs.APIRTMPStream{{
			App:          "live",
			Path:         "live/abc",
			Created:      time.Date(2003, 11, 4, 23, 15, 7, 0, time.UTC),
			ReadersCount: 2,
			Tracks: []defs.APIRTMPTrack{
				{Type: "video", Codec: "H264"},
				{Type: "audio", Codec: "AAC"},
			},
		}},
	}
}

type dummyRTMPServer struct{}

func (dummyRTMPServer) APIConnsList() (*defs.APIRTMPConnList, error) {
	return &defs.APIRTMPConnList{
		ItemCount: 1,
		Items: []*defs.APIRTMPConn{{
			ID:            uuid.MustParse("44e7b0ae-5ce7-4f1e-b9a7-0d0fe86e1a1c"),
			Created:       time.Date(2003, 11, 4, 23, 15, 7, 0, time.UTC),
			RemoteAddr:    "127.0.0.1:34254",
			State:         defs.APIRTMPConnStatePublish,
			Path:          "live/abc",
			BytesReceived: 123,
			BytesSent:     456,
		}},
	}, nil
}

func TestMetricsEmpty(t *testing.T) {
	m := Metrics{
		Address:      "localhost:9598",
		ReadTimeout:  conf.Duration(10 * time.Second),
		WriteTimeout: conf.Duration(10 * time.Second),
		Parent:       test.NilLogger,
	}
	err := m.Initialize()
	require.NoError(t, err)
	defer m.Close()

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	hc := &http.Client{Transport: tr}

	res, err := hc.Get("http://localhost:9598/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	byts, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "", string(byts))
}

func TestMetrics(t *testing.T) {
	m := Metrics{
		Address:      "localhost:9598",
		ReadTimeout:  conf.Duration(10 * time.Second),
		WriteTimeout: conf.Duration(10 * time.Second),
		Parent:       test.NilLogger,
	}
	err := m.Initialize()
	require.NoError(t, err)
	defer m.Close()

	m.SetStreamRegistry(&dummyStreamRegistry{})
	m.SetRTMPServer(&dummyRTMPServer{})

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	hc := &http.Client{Transport: tr}

	res, err := hc.Get("http://localhost:9598/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	byts, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t,
		`rtmp_streams{app="live",tracks="H264/AAC"} 1`+"\n"+
			`rtmp_streams_readers{app="live"} 2`+"\n"+
			`rtmp_conns{id="44e7b0ae-5ce7-4f1e-b9a7-0d0fe86e1a1c",state="publish"} 1`+"\n"+
			`rtmp_conns_bytes_received{id="44e7b0ae-5ce7-4f1e-b9a7-0d0fe86e1a1c",state="publish"} 123`+"\n"+
			`rtmp_conns_bytes_sent{id="44e7b0ae-5ce7-4f1e-b9a7-0d0fe86e1a1c",state="publish"} 456`+"\n",
		string(byts))
}
