package runs

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/certifier/pkg/pagination"
)

type memory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
}

// NewMemoryStore creates an in-process Store for standalone runs and tests.
func NewMemoryStore() Store {
	return &memory{runs: make(map[uuid.UUID]Run)}
}

func (m *memory) Create(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; ok {
		return ErrDuplicate
	}
	m.runs[run.ID] = clone(run)
	return nil
}

func (m *memory) Update(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.runs[run.ID]
	if !ok {
		return ErrNotFound
	}
	if current.State.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current.State)
	}
	m.runs[run.ID] = clone(run)
	return nil
}

func (m *memory) Find(_ context.Context, id uuid.UUID) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

func (m *memory) List(_ context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Run], error) {
	m.mu.RLock()
	var matched []Run
	for _, run := range m.runs {
		if filters.match(&run) && search(page.Search, &run) {
			matched = append(matched, run)
		}
	}
	m.mu.RUnlock()

	ascending := len(page.Sort) > 0 && page.Sort[0].Field == "StartedAt" && !page.Sort[0].Descending
	slices.SortFunc(matched, func(a, b Run) int {
		if ascending {
			return a.StartedAt.Compare(b.StartedAt)
		}
		return b.StartedAt.Compare(a.StartedAt)
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	result := pagination.NewPageResult(matched[start:end], total, page)
	return &result, nil
}

func (f Filters) match(r *Run) bool {
	if f.State != nil && r.State != *f.State {
		return false
	}
	if f.Compliance != nil && r.Compliance != *f.Compliance {
		return false
	}
	if f.AnalysisType != nil && r.AnalysisType != *f.AnalysisType {
		return false
	}
	return true
}

func search(term *string, r *Run) bool {
	if term == nil || *term == "" {
		return true
	}
	t := strings.ToLower(*term)
	return strings.Contains(strings.ToLower(r.LSU), t) || strings.Contains(strings.ToLower(r.AnalysisID), t)
}

func clone(r *Run) Run {
	c := *r
	if r.EndedAt != nil {
		t := *r.EndedAt
		c.EndedAt = &t
	}
	if r.Coherence != nil {
		f := *r.Coherence
		c.Coherence = &f
	}
	return c
}
