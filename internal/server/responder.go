package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/afero"
)

// sniffLen matches the amount http.DetectContentType looks at.
const sniffLen = 512

// Responder serves files from a document root. Directories are left to the
// stock http.FileServer policy (index.html, redirect, listing).
type Responder struct {
	fs     afero.Fs
	dirs   http.Handler
	logger *slog.Logger
}

// NewResponder creates a responder rooted at fsys. Every name it opens is
// rooted ("/game.js"), so fsys should already be confined to the document root.
func NewResponder(fsys afero.Fs, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		fs:     fsys,
		dirs:   http.FileServer(afero.NewHttpFs(fsys).Dir("/")),
		logger: logger,
	}
}

func (rs *Responder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, err := resolvePath(r.URL.Path)
	if err != nil {
		rs.fail(w, r, err)
		return
	}

	info, err := rs.fs.Stat(name)
	if err != nil {
		rs.fail(w, r, classify(err))
		return
	}

	if info.IsDir() {
		rs.dirs.ServeHTTP(w, r)
		return
	}

	if err := rs.serveFile(w, r, name, info); err != nil {
		rs.fail(w, r, err)
	}
}

// serveFile streams one regular file. Failures before the first header byte
// are returned so the caller can answer with a clean error status.
func (rs *Responder) serveFile(w http.ResponseWriter, r *http.Request, name string, info fs.FileInfo) error {
	f, err := rs.fs.Open(name)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			rs.logger.Warn("Failed to close file", "path", name, "error", cerr)
		}
	}()

	// Read the head of the file so read errors surface before anything is sent
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return classify(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return classify(err)
	}

	ctype := ContentType(name)
	if ctype == "" {
		ctype = http.DetectContentType(head[:n])
	}
	w.Header().Set("Content-Type", ctype)

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

// fail writes a short error response. The body never carries the underlying
// error or a filesystem path.
func (rs *Responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		rs.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	} else {
		rs.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}

	if code == http.StatusNotFound {
		if page, readErr := afero.ReadFile(rs.fs, "/404.html"); readErr == nil {
			h := w.Header()
			h.Del("Content-Length")
			h.Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(code)
			if r.Method != http.MethodHead {
				_, _ = w.Write(page)
			}
			return
		}
	}

	http.Error(w, fmt.Sprintf("%d %s", code, http.StatusText(code)), code)
}

// OpenRoot returns the production filesystem for dir: read-only and confined
// to dir, so names can never resolve outside it.
func OpenRoot(dir string) (afero.Fs, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory", dir)
	}
	return afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}
