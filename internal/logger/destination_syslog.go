package logger

import (
	"bytes"
	"io"
	"time"
)

type destinationSyslog struct {
	parent *Logger
	syslog io.WriteCloser
	buf    bytes.Buffer
}

func newDestinationSyslog(parent *Logger) (destination, error) {
	syslog, err := newSyslog("masterstream")
	if err != nil {
		return nil, err
	}

	return &destinationSyslog{
		parent: parent,
		syslog: syslog,
	}, nil
}

func (d *destinationSyslog) log(t time.Time, level Level, format string, args ...interface{}) {
	d.buf.Reset()

	if d.parent.Structured {
		writeStructured(&d.buf, t, level, format, args)
	} else {
		writeTime(&d.buf, t, false)
		writeLevel(&d.buf, level, false)
		writeContent(&d.buf, format, args)
	}

	d.syslog.Write(d.buf.Bytes()) //nolint:errcheck
}

func (d *destinationSyslog) close() {
	d.syslog.Close()
}
