// Package core contains the main struct of the software.
package core

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"

	"github.com/masterstream/masterstream/internal/conf"
	"github.com/masterstream/masterstream/internal/confwatcher"
	"github.com/masterstream/masterstream/internal/externalcmd"
	"github.com/masterstream/masterstream/internal/logger"
	"github.com/masterstream/masterstream/internal/metrics"
	"github.com/masterstream/masterstream/internal/pprof"
	"github.com/masterstream/masterstream/internal/rlimit"
	"github.com/masterstream/masterstream/internal/servers/rtmp"
	"github.com/masterstream/masterstream/internal/stream"
)

//go:generate go run ./versiongetter

//go:embed VERSION
var version []byte

var defaultConfPaths = []string{
	"masterstream.yml",
	"/usr/local/etc/masterstream.yml",
	"/usr/etc/masterstream.yml",
	"/etc/masterstream/masterstream.yml",
}

var cli struct {
	Version  bool   `help:"print version."`
	Confpath string `arg:"" default:""`
}

// Core is an instance of MasterStream.
type Core struct {
	ctx             context.Context
	ctxCancel       func()
	confPath        string
	conf            *conf.Conf
	logger          *logger.Logger
	externalCmdPool *externalcmd.Pool
	metrics         *metrics.Metrics
	pprof           *pprof.PPROF
	streamRegistry  *stream.Registry
	rtmpServer      *rtmp.Server
	confWatcher     *confwatcher.ConfWatcher

	// out
	done chan struct{}
}

// New allocates a Core.
func New(args []string) (*Core, bool) {
	parser, err := kong.New(&cli,
		kong.Description("MasterStream "+strings.TrimSpace(string(version))),
		kong.UsageOnError(),
		kong.ValueFormatter(func(value *kong.Value) string {
			switch value.Name {
			case "confpath":
				return "path to a config file. The default is masterstream.yml."

			default:
				return kong.DefaultHelpValueFormatter(value)
			}
		}))
	if err != nil {
		panic(err)
	}

	_, err = parser.Parse(args)
	parser.FatalIfErrorf(err)

	if cli.Version {
		fmt.Println(strings.TrimSpace(string(version)))
		os.Exit(0)
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	p := &Core{
		ctx:       ctx,
		ctxCancel: ctxCancel,
		done:      make(chan struct{}),
	}

	p.conf, p.confPath, err = conf.Load(cli.Confpath, defaultConfPaths)
	if err != nil {
		fmt.Printf("ERR: %s\n", err)
		return nil, false
	}

	err = p.createResources(true)
	if err != nil {
		if p.logger != nil {
			p.Log(logger.Error, "%s", err)
		} else {
			fmt.Printf("ERR: %s\n", err)
		}
		p.closeResources(nil)
		return nil, false
	}

	go p.run()

	return p, true
}

// Close closes Core and waits for all goroutines to return.
func (p *Core) Close() {
	p.ctxCancel()
	<-p.done
}

// Wait waits for the Core to exit.
func (p *Core) Wait() {
	<-p.done
}

// Log implements logger.Writer.
func (p *Core) Log(level logger.Level, format string, args ...interface{}) {
	p.logger.Log(level, format, args...)
}

func (p *Core) run() {
	defer close(p.done)

	confChanged := func() chan struct{} {
		if p.confWatcher != nil {
			return p.confWatcher.Watch()
		}
		return make(chan struct{})
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

outer:
	for {
		select {
		case <-confChanged:
			p.Log(logger.Info, "reloading configuration (file changed)")

			newConf, _, err := conf.Load(p.confPath, nil)
			if err != nil {
				p.Log(logger.Error, "%s", err)
				break outer
			}

			err = p.reloadConf(newConf)
			if err != nil {
				p.Log(logger.Error, "%s", err)
				break outer
			}

		case <-interrupt:
			p.Log(logger.Info, "shutting down gracefully")
			break outer

		case <-p.ctx.Done():
			break outer
		}
	}

	p.ctxCancel()

	p.closeResources(nil)
}

func (p *Core) createResources(initial bool) error {
	var err error

	if p.logger == nil {
		i := &logger.Logger{
			Level:        logger.Level(p.conf.LogLevel),
			Destinations: p.conf.LogDestinations.ToDestinations(),
			File:         p.conf.LogFile,
		}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.logger = i
	}

	if initial {
		p.Log(logger.Info, "MasterStream %s", strings.TrimSpace(string(version)))

		if p.confPath == "" {
			p.Log(logger.Warn, "configuration file not found, using the default one")
		}

		// on Linux, try to raise the number of file descriptors that can be opened
		// to allow the maximum possible number of clients
		rlimit.Raise() //nolint:errcheck

		gin.SetMode(gin.ReleaseMode)

		p.externalCmdPool = &externalcmd.Pool{}
		p.externalCmdPool.Initialize()
	}

	if p.conf.Metrics &&
		p.metrics == nil {
		i := &metrics.Metrics{
			Address:      p.conf.MetricsAddress,
			ReadTimeout:  p.conf.ReadTimeout,
			WriteTimeout: p.conf.WriteTimeout,
			Parent:       p,
		}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.metrics = i
	}

	if p.conf.PPROF &&
		p.pprof == nil {
		i := &pprof.PPROF{
			Address:      p.conf.PPROFAddress,
			ReadTimeout:  p.conf.ReadTimeout,
			WriteTimeout: p.conf.WriteTimeout,
			Parent:       p,
		}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.pprof = i
	}

	if p.streamRegistry == nil {
		p.streamRegistry = &stream.Registry{}
		p.streamRegistry.Initialize()
	}

	if p.conf.RTMP &&
		p.rtmpServer == nil {
		i := &rtmp.Server{
			Address:             p.conf.RTMPAddress,
			ReadTimeout:         p.conf.ReadTimeout,
			WriteTimeout:        p.conf.WriteTimeout,
			HandshakeTimeout:    p.conf.HandshakeTimeout,
			ChunkSize:           p.conf.RTMPChunkSize,
			MaxMessageSize:      p.conf.RTMPMaxMessageSize,
			WriteQueueSize:      p.conf.WriteQueueSize,
			RunOnConnect:        p.conf.RunOnConnect,
			RunOnConnectRestart: p.conf.RunOnConnectRestart,
			RunOnDisconnect:     p.conf.RunOnDisconnect,
			RunOnPublish:        p.conf.RunOnPublish,
			RunOnPublishRestart: p.conf.RunOnPublishRestart,
			RunOnUnpublish:      p.conf.RunOnUnpublish,
			RunOnRead:           p.conf.RunOnRead,
			RunOnReadRestart:    p.conf.RunOnReadRestart,
			RunOnUnread:         p.conf.RunOnUnread,
			ExternalCmdPool:     p.externalCmdPool,
			Registry:            p.streamRegistry,
			Parent:              p,
		}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.rtmpServer = i
	}

	if initial && p.confPath != "" {
		i := &confwatcher.ConfWatcher{FilePath: p.confPath}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.confWatcher = i
	}

	// the metrics provider pulls from the current servers. Point it at them
	// after every reload, since servers may have been recreated.
	if p.metrics != nil {
		p.metrics.SetStreamRegistry(p.streamRegistry)
		p.metrics.SetRTMPServer(p.rtmpServer)
	}

	return nil
}

func (p *Core) closeResources(newConf *conf.Conf) {
	closeLogger := newConf == nil ||
		newConf.LogLevel != p.conf.LogLevel ||
		!reflect.DeepEqual(newConf.LogDestinations, p.conf.LogDestinations) ||
		newConf.LogFile != p.conf.LogFile

	closeMetrics := newConf == nil ||
		newConf.Metrics != p.conf.Metrics ||
		newConf.MetricsAddress != p.conf.MetricsAddress ||
		newConf.ReadTimeout != p.conf.ReadTimeout ||
		newConf.WriteTimeout != p.conf.WriteTimeout

	closePPROF := newConf == nil ||
		newConf.PPROF != p.conf.PPROF ||
		newConf.PPROFAddress != p.conf.PPROFAddress ||
		newConf.ReadTimeout != p.conf.ReadTimeout ||
		newConf.WriteTimeout != p.conf.WriteTimeout

	// streams survive configuration reloads. Closing the registry would
	// detach every publisher and reader for no reason.
	closeStreamRegistry := newConf == nil

	closeRTMPServer := newConf == nil ||
		newConf.RTMP != p.conf.RTMP ||
		newConf.RTMPAddress != p.conf.RTMPAddress ||
		newConf.ReadTimeout != p.conf.ReadTimeout ||
		newConf.WriteTimeout != p.conf.WriteTimeout ||
		newConf.HandshakeTimeout != p.conf.HandshakeTimeout ||
		newConf.RTMPChunkSize != p.conf.RTMPChunkSize ||
		newConf.RTMPMaxMessageSize != p.conf.RTMPMaxMessageSize ||
		newConf.WriteQueueSize != p.conf.WriteQueueSize ||
		newConf.RunOnConnect != p.conf.RunOnConnect ||
		newConf.RunOnConnectRestart != p.conf.RunOnConnectRestart ||
		newConf.RunOnDisconnect != p.conf.RunOnDisconnect ||
		newConf.RunOnPublish != p.conf.RunOnPublish ||
		newConf.RunOnPublishRestart != p.conf.RunOnPublishRestart ||
		newConf.RunOnUnpublish != p.conf.RunOnUnpublish ||
		newConf.RunOnRead != p.conf.RunOnRead ||
		newConf.RunOnReadRestart != p.conf.RunOnReadRestart ||
		newConf.RunOnUnread != p.conf.RunOnUnread ||
		closeStreamRegistry

	if newConf == nil && p.confWatcher != nil {
		p.confWatcher.Close()
		p.confWatcher = nil
	}

	if closeRTMPServer && p.rtmpServer != nil {
		p.rtmpServer.Close()
		p.rtmpServer = nil
	}

	if closeStreamRegistry {
		p.streamRegistry = nil
	}

	if closePPROF && p.pprof != nil {
		p.pprof.Close()
		p.pprof = nil
	}

	if closeMetrics && p.metrics != nil {
		p.metrics.Close()
		p.metrics = nil
	}

	if newConf == nil && p.externalCmdPool != nil {
		p.Log(logger.Info, "waiting for running hooks")
		p.externalCmdPool.Close()
	}

	if closeLogger && p.logger != nil {
		p.logger.Close()
		p.logger = nil
	}
}

func (p *Core) reloadConf(newConf *conf.Conf) error {
	p.closeResources(newConf)
	p.conf = newConf
	return p.createResources(false)
}
