package server

import (
	"context"
	"sync"
	"time"

	"github.com/Kush-Singh-26/kula-serve/internal/watch"
)

// startWatcher watches root and broadcasts a reload on every change. The
// returned WaitGroup is done once the watcher has shut down after ctx ends.
func (s *Server) startWatcher(ctx context.Context, root string, debounce time.Duration) (*sync.WaitGroup, error) {
	w, err := watch.New(root, debounce, func(e watch.Event) {
		s.logger.Debug("Change detected", "path", e.Name, "op", e.Op.String(), "clients", s.hub.Clients())
		s.hub.Broadcast()
	})
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()
	return &wg, nil
}
