package logger

import (
	"bytes"
	"os"
	"time"
)

type destinationFile struct {
	parent *Logger
	file   *os.File
	buf    bytes.Buffer
}

func newDestinationFile(parent *Logger) (destination, error) {
	f, err := os.OpenFile(parent.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &destinationFile{
		parent: parent,
		file:   f,
	}, nil
}

func (d *destinationFile) log(t time.Time, level Level, format string, args ...interface{}) {
	d.buf.Reset()

	if d.parent.Structured {
		writeStructured(&d.buf, t, level, format, args)
	} else {
		writeTime(&d.buf, t, false)
		writeLevel(&d.buf, level, false)
		writeContent(&d.buf, format, args)
	}

	d.file.Write(d.buf.Bytes()) //nolint:errcheck
}

func (d *destinationFile) close() {
	d.file.Close()
}
