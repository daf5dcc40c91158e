package board

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc builds a board for a schedule that is not cached yet.
type LoadFunc func(ctx context.Context, scheduleID string) (*Board, error)

// Registry caches live boards by schedule id.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*Board
	load   LoadFunc
	group  singleflight.Group
}

// NewRegistry creates an empty registry that loads misses with load.
func NewRegistry(load LoadFunc) *Registry {
	return &Registry{
		boards: make(map[string]*Board),
		load:   load,
	}
}

// Get returns the cached board for scheduleID, loading it on a miss.
// Concurrent misses for the same schedule share one load.
func (r *Registry) Get(ctx context.Context, scheduleID string) (*Board, error) {
	r.mu.RLock()
	b, ok := r.boards[scheduleID]
	r.mu.RUnlock()
	if ok {
		b.Touch()
		return b, nil
	}

	v, err, _ := r.group.Do(scheduleID, func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.boards[scheduleID]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := r.load(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.boards[scheduleID] = loaded
		r.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Board), nil
}

// Forget drops a cached board so the next Get reloads it. The dropped board
// is retired.
func (r *Registry) Forget(scheduleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.boards[scheduleID]; ok {
		b.retire()
		delete(r.boards, scheduleID)
	}
}

// ForgetTemplate drops every cached board projected from templateID and
// returns how many were dropped.
func (r *Registry) ForgetTemplate(templateID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, b := range r.boards {
		if b.Template().ID == templateID {
			b.retire()
			delete(r.boards, id)
			n++
		}
	}
	return n
}

// EvictIdle drops boards not used since cutoff and returns how many were dropped.
func (r *Registry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, b := range r.boards {
		if b.LastUsed().Before(cutoff) {
			b.retire()
			delete(r.boards, id)
			n++
		}
	}
	return n
}

// Len returns the number of cached boards.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boards)
}
