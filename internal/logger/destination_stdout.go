package logger

import (
	"bytes"
	"os"
	"time"

	"golang.org/x/term"
)

type destinationStdout struct {
	parent   *Logger
	useColor bool
	buf      bytes.Buffer
}

func newDestinationStdout(parent *Logger) destination {
	return &destinationStdout{
		parent:   parent,
		useColor: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (d *destinationStdout) log(t time.Time, level Level, format string, args ...interface{}) {
	d.buf.Reset()

	if d.parent.Structured {
		writeStructured(&d.buf, t, level, format, args)
	} else {
		writeTime(&d.buf, t, d.useColor)
		writeLevel(&d.buf, level, d.useColor)
		writeContent(&d.buf, format, args)
	}

	d.parent.stdout.Write(d.buf.Bytes()) //nolint:errcheck
}

func (d *destinationStdout) close() {
}
