package server

import (
	"net/http"
)

// Policy lists the headers added to every response.
type Policy struct {
	Headers map[string]string
}

// DefaultPolicy returns the permissive CORS policy used for game development.
func DefaultPolicy() Policy {
	return Policy{
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type",
		},
	}
}

// apply runs once per response, right before the headers are committed.
func (p Policy) apply(h http.Header, r *http.Request) {
	for name, value := range p.Headers {
		h.Set(name, value)
	}
	if ctype, ok := typeOverride(r.URL.Path); ok {
		h.Set("Content-Type", ctype)
	}
}

// Decorate wraps next so that policy headers and the script content type are
// applied to every response it produces, whatever the status.
func Decorate(next http.Handler, policy Policy) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dw := &decoratedWriter{
			ResponseWriter: w,
			decorate:       func(h http.Header) { policy.apply(h, r) },
		}
		next.ServeHTTP(dw, r)

		// Nothing written: net/http sends the header map as-is once we return
		if !dw.committed {
			dw.commit()
		}
	})
}

// decoratedWriter calls decorate exactly once, after the wrapped handler has
// populated the header map and before it reaches the wire.
type decoratedWriter struct {
	http.ResponseWriter
	decorate  func(http.Header)
	committed bool
}

func (w *decoratedWriter) commit() {
	w.committed = true
	w.decorate(w.Header())
}

func (w *decoratedWriter) WriteHeader(code int) {
	if !w.committed {
		w.commit()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *decoratedWriter) Write(b []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *decoratedWriter) Flush() {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *decoratedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
