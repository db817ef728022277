package store

import (
	"context"
	"sync"

	"finmodel/pkg/models"
)

// MemoryRunRepo keeps runs in process memory. It backs deployments without
// a database and the handler tests; contents are lost on restart.
type MemoryRunRepo struct {
	mu    sync.RWMutex
	byID  map[string]*models.ModelRun
	order []string // insertion order, oldest first
}

var _ RunRepository = (*MemoryRunRepo)(nil)

func NewMemoryRunRepo() *MemoryRunRepo {
	return &MemoryRunRepo{byID: make(map[string]*models.ModelRun)}
}

func (r *MemoryRunRepo) Save(_ context.Context, run *models.ModelRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *run
	if _, exists := r.byID[run.ID]; !exists {
		r.order = append(r.order, run.ID)
	}
	r.byID[run.ID] = &copied
	return nil
}

func (r *MemoryRunRepo) Load(_ context.Context, id string) (*models.ModelRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

func (r *MemoryRunRepo) Recent(_ context.Context, limit int) ([]*models.ModelRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	var runs []*models.ModelRun
	for i := len(r.order) - 1; i >= 0 && len(runs) < limit; i-- {
		copied := *r.byID[r.order[i]]
		runs = append(runs, &copied)
	}
	return runs, nil
}
