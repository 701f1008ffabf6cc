package runs

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/certifier/pkg/pagination"
	"github.com/JaimeStill/certifier/pkg/query"
)

// Store persists run records. The engine only creates and updates runs;
// Find and List serve the dashboard.
type Store interface {
	Create(ctx context.Context, run *Run) error
	// Update persists a transition. Runs already terminal in the store are rejected.
	Update(ctx context.Context, run *Run) error
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Run], error)
}

// Filters contains optional exact-match criteria for run queries. Nil fields are ignored.
type Filters struct {
	State        *State  `json:"state,omitempty"`
	Compliance   *string `json:"compliance_status,omitempty"`
	AnalysisType *string `json:"analysis_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var state *string
	if f.State != nil {
		s := string(*f.State)
		state = &s
	}
	return b.
		WhereEquals("State", state).
		WhereEquals("Compliance", f.Compliance).
		WhereEquals("AnalysisType", f.AnalysisType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("state"); s != "" {
		st := State(s)
		f.State = &st
	}
	if c := values.Get("compliance_status"); c != "" {
		f.Compliance = &c
	}
	if t := values.Get("analysis_type"); t != "" {
		f.AnalysisType = &t
	}

	return f
}
