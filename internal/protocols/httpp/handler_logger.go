package httpp

import (
	"net/http"

	"github.com/masterstream/masterstream/internal/logger"
)

// log requests.
type handlerLogger struct {
	h      http.Handler
	parent logger.Writer
}

func (h *handlerLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.parent.Log(logger.Debug, "[conn %v] %s %s", r.RemoteAddr, r.Method, r.URL.String())
	h.h.ServeHTTP(w, r)
}
