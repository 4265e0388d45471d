package defs

import (
	"time"

	"github.com/google/uuid"
)

// APIError is a generic error.
type APIError struct {
	Error string `json:"error"`
}

// APIRTMPConnState is the state of a RTMP connection.
type APIRTMPConnState string

// states.
const (
	APIRTMPConnStateIdle    APIRTMPConnState = "idle"
	APIRTMPConnStateRead    APIRTMPConnState = "read"
	APIRTMPConnStatePublish APIRTMPConnState = "publish"
)

// APIRTMPConn is a RTMP connection.
type APIRTMPConn struct {
	ID            uuid.UUID        `json:"id"`
	Created       time.Time        `json:"created"`
	RemoteAddr    string           `json:"remoteAddr"`
	State         APIRTMPConnState `json:"state"`
	Path          string           `json:"path"`
	Query         string           `json:"query"`
	BytesReceived uint64           `json:"bytesReceived"`
	BytesSent     uint64           `json:"bytesSent"`
}

// APIRTMPConnList is a list of RTMP connections.
type APIRTMPConnList struct {
	ItemCount int            `json:"itemCount"`
	Items     []*APIRTMPConn `json:"items"`
}

// APIRTMPTrack describes a media track of a published stream.
type APIRTMPTrack struct {
	Type       string  `json:"type"`
	Codec      string  `json:"codec"`
	Profile    string  `json:"profile,omitempty"`
	Level      float64 `json:"level,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	SampleRate int     `json:"sampleRate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
}

// APIRTMPStream is a published stream.
type APIRTMPStream struct {
	App          string         `json:"app"`
	Path         string         `json:"path"`
	Created      time.Time      `json:"created"`
	ReadersCount int            `json:"readersCount"`
	Tracks       []APIRTMPTrack `json:"tracks"`
}

// APIRTMPStreamList is a list of published streams.
type APIRTMPStreamList struct {
	ItemCount int              `json:"itemCount"`
	Items     []*APIRTMPStream `json:"items"`
}
