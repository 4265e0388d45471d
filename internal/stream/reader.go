package stream

import (
	"fmt"
	"sync/atomic"

	"github.com/bluenviron/gortsplib/v4/pkg/ringbuffer"

	"github.com/masterstream/masterstream/internal/protocols/rtmp/message"
)

// Reader is a stream reader. Messages are forwarded through a bounded
// queue; the reader routine drains it and hands messages to the owner.
// A reader that cannot keep up makes the queue overflow, which closes
// the queue and terminates the routine, so that one slow reader cannot
// stall the publisher or the other readers.
type Reader struct {
	QueueSize int

	buffer      *ringbuffer.RingBuffer
	started     bool
	overflowed  atomic.Bool
	onMessage   func(msg message.Message) error
	onUnpublish func() error

	// out
	err chan error
}

// Initialize initializes a Reader.
func (r *Reader) Initialize() {
	buffer, _ := ringbuffer.New(uint64(r.QueueSize))
	r.buffer = buffer
	r.err = make(chan error)
}

// Start starts the reader routine.
func (r *Reader) Start() {
	r.started = true
	go r.run()
}

// Stop stops the reader routine.
func (r *Reader) Stop() {
	r.buffer.Close()
	if r.started {
		<-r.err
	}
}

// Error returns whenever there's an error.
func (r *Reader) Error() chan error {
	return r.err
}

func (r *Reader) run() {
	r.err <- r.runInner()
	close(r.err)
}

func (r *Reader) runInner() error {
	for {
		cb, ok := r.buffer.Pull()
		if !ok {
			if r.overflowed.Load() {
				return fmt.Errorf("write queue is full")
			}
			return fmt.Errorf("terminated")
		}

		err := cb.(func() error)()
		if err != nil {
			return err
		}
	}
}

func (r *Reader) push(cb func() error) {
	ok := r.buffer.Push(cb)
	if !ok {
		r.overflowed.Store(true)
		r.buffer.Close()
	}
}
