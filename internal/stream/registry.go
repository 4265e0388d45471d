package stream

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/masterstream/masterstream/internal/defs"
	"github.com/masterstream/masterstream/internal/logger"
	"github.com/masterstream/masterstream/internal/protocols/rtmp/message"
)

// ErrStreamAlreadyExists is returned when the application already has a publisher.
var ErrStreamAlreadyExists = errors.New("stream already exists")

// ErrStreamNotFound is returned when the application has no publisher.
var ErrStreamNotFound = errors.New("stream not found")

// Registry tracks published streams, keyed by application name.
// At most one publisher can be active per application.
type Registry struct {
	mutex   sync.RWMutex
	streams map[string]*Stream
}

// Initialize initializes a Registry.
func (r *Registry) Initialize() {
	r.streams = make(map[string]*Stream)
}

// Publish creates a stream.
// It fails when the application already has a publisher.
func (r *Registry) Publish(app string, path string, parent logger.Writer) (*Stream, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.streams[app]; ok {
		return nil, ErrStreamAlreadyExists
	}

	s := &Stream{
		app:     app,
		path:    path,
		created: time.Now(),
		parent:  parent,
		// configurations are re-sent periodically by some encoders;
		// unparsable ones must not flood the log.
		parseWarnLogger: logger.NewLimitedLogger(parent),
		readers:         make(map[*Reader]struct{}),
	}
	r.streams[app] = s

	return s, nil
}

// Unpublish removes a stream and detaches its readers.
func (r *Registry) Unpublish(s *Stream) {
	r.mutex.Lock()
	if cur, ok := r.streams[s.app]; ok && cur == s {
		delete(r.streams, s.app)
	}
	r.mutex.Unlock()

	s.close()
}

// AddReader attaches a reader to the stream of the given application.
// Cached metadata and codec configurations are queued on the reader
// before any live message.
func (r *Registry) AddReader(
	app string,
	rd *Reader,
	onMessage func(message.Message) error,
	onUnpublish func() error,
) (*Stream, error) {
	r.mutex.RLock()
	s, ok := r.streams[app]
	r.mutex.RUnlock()

	if !ok {
		return nil, ErrStreamNotFound
	}

	err := s.addReader(rd, onMessage, onUnpublish)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// APIStreamsList returns a list of streams.
func (r *Registry) APIStreamsList() *defs.APIRTMPStreamList {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	data := &defs.APIRTMPStreamList{
		Items: []*defs.APIRTMPStream{},
	}

	for _, s := range r.streams {
		data.Items = append(data.Items, s.apiItem())
	}

	sort.Slice(data.Items, func(i, j int) bool {
		return data.Items[i].Created.Before(data.Items[j].Created)
	})

	data.ItemCount = len(data.Items)

	return data
}
