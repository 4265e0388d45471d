// Package conf contains the struct that holds the configuration of the software.
package conf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/masterstream/masterstream/internal/conf/decrypt"
	"github.com/masterstream/masterstream/internal/conf/env"
	"github.com/masterstream/masterstream/internal/conf/yamlwrapper"
	"github.com/masterstream/masterstream/internal/logger"
)

func firstThatExists(paths []string) string {
	for _, pa := range paths {
		_, err := os.Stat(pa)
		if err == nil {
			return pa
		}
	}
	return ""
}

// Conf is a configuration.
// WARNING: Avoid using slices directly due to https://github.com/golang/go/issues/21092
type Conf struct {
	// General
	LogLevel            LogLevel        `json:"logLevel"`
	LogDestinations     LogDestinations `json:"logDestinations"`
	LogFile             string          `json:"logFile"`
	ReadTimeout         Duration        `json:"readTimeout"`
	WriteTimeout        Duration        `json:"writeTimeout"`
	HandshakeTimeout    Duration        `json:"handshakeTimeout"`
	WriteQueueSize      int             `json:"writeQueueSize"`
	RunOnConnect        string          `json:"runOnConnect"`
	RunOnConnectRestart bool            `json:"runOnConnectRestart"`
	RunOnDisconnect     string          `json:"runOnDisconnect"`

	// Metrics
	Metrics        bool   `json:"metrics"`
	MetricsAddress string `json:"metricsAddress"`

	// PPROF
	PPROF        bool   `json:"pprof"`
	PPROFAddress string `json:"pprofAddress"`

	// RTMP server
	RTMP               bool       `json:"rtmp"`
	RTMPAddress        string     `json:"rtmpAddress"`
	RTMPChunkSize      int        `json:"rtmpChunkSize"`
	RTMPMaxMessageSize StringSize `json:"rtmpMaxMessageSize"`

	// Hooks
	RunOnPublish        string `json:"runOnPublish"`
	RunOnPublishRestart bool   `json:"runOnPublishRestart"`
	RunOnUnpublish      string `json:"runOnUnpublish"`
	RunOnRead           string `json:"runOnRead"`
	RunOnReadRestart    bool   `json:"runOnReadRestart"`
	RunOnUnread         string `json:"runOnUnread"`
}

func (conf *Conf) setDefaults() {
	// General
	conf.LogLevel = LogLevel(logger.Info)
	conf.LogDestinations = LogDestinations{LogDestination(logger.DestinationStdout)}
	conf.LogFile = "masterstream.log"
	conf.ReadTimeout = 10 * Duration(time.Second)
	conf.WriteTimeout = 10 * Duration(time.Second)
	conf.HandshakeTimeout = 5 * Duration(time.Second)
	conf.WriteQueueSize = 512

	// Metrics
	conf.MetricsAddress = "127.0.0.1:9998"

	// PPROF
	conf.PPROFAddress = "127.0.0.1:9999"

	// RTMP server
	conf.RTMP = true
	conf.RTMPAddress = ":1935"
	conf.RTMPChunkSize = 4096
	conf.RTMPMaxMessageSize = 10 * 1024 * 1024
}

// Load loads a Conf.
func Load(fpath string, defaultConfPaths []string) (*Conf, string, error) {
	conf := &Conf{}

	fpath, err := conf.loadFromFile(fpath, defaultConfPaths)
	if err != nil {
		return nil, "", err
	}

	err = env.Load("MSTR", conf)
	if err != nil {
		return nil, "", err
	}

	err = conf.Validate()
	if err != nil {
		return nil, "", err
	}

	return conf, fpath, nil
}

func (conf *Conf) loadFromFile(fpath string, defaultConfPaths []string) (string, error) {
	if fpath == "" {
		fpath = firstThatExists(defaultConfPaths)

		// when the configuration file is not explicitly set,
		// it is optional.
		if fpath == "" {
			conf.setDefaults()
			return "", nil
		}
	}

	byts, err := os.ReadFile(fpath)
	if err != nil {
		return "", err
	}

	if key, ok := os.LookupEnv("MSTR_CONFKEY"); ok {
		byts, err = decrypt.Decrypt(key, byts)
		if err != nil {
			return "", err
		}
	}

	err = yamlwrapper.Unmarshal(byts, conf)
	if err != nil {
		return "", err
	}

	return fpath, nil
}

// Clone clones the configuration.
func (conf Conf) Clone() *Conf {
	enc, err := json.Marshal(conf)
	if err != nil {
		panic(err)
	}

	var dest Conf
	err = json.Unmarshal(enc, &dest)
	if err != nil {
		panic(err)
	}

	return &dest
}

// Validate checks the configuration for errors.
func (conf *Conf) Validate() error {
	// General

	if conf.ReadTimeout <= 0 {
		return fmt.Errorf("'readTimeout' must be greater than zero")
	}
	if conf.WriteTimeout <= 0 {
		return fmt.Errorf("'writeTimeout' must be greater than zero")
	}
	if conf.HandshakeTimeout <= 0 {
		return fmt.Errorf("'handshakeTimeout' must be greater than zero")
	}
	if (conf.WriteQueueSize & (conf.WriteQueueSize - 1)) != 0 {
		return fmt.Errorf("'writeQueueSize' must be a power of two")
	}

	// Metrics

	if conf.Metrics {
		if _, _, err := net.SplitHostPort(conf.MetricsAddress); err != nil {
			return fmt.Errorf("'metricsAddress' is invalid")
		}
	}

	// PPROF

	if conf.PPROF {
		if _, _, err := net.SplitHostPort(conf.PPROFAddress); err != nil {
			return fmt.Errorf("'pprofAddress' is invalid")
		}
	}

	// RTMP server

	if conf.RTMP {
		if _, _, err := net.SplitHostPort(conf.RTMPAddress); err != nil {
			return fmt.Errorf("'rtmpAddress' is invalid")
		}
	}
	if conf.RTMPChunkSize < 128 || conf.RTMPChunkSize > 10485760 {
		return fmt.Errorf("'rtmpChunkSize' must be between 128 and 10485760")
	}

	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (conf *Conf) UnmarshalJSON(b []byte) error {
	conf.setDefaults()

	type alias Conf
	d := json.NewDecoder(bytes.NewReader(b))
	d.DisallowUnknownFields()
	return d.Decode((*alias)(conf))
}
