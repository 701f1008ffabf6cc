package runs

import (
	"database/sql"
	"time"

	"github.com/JaimeStill/certifier/pkg/query"
	"github.com/JaimeStill/certifier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("analysis_id", "AnalysisID").
	Project("lsu", "LSU").
	Project("analysis_type", "AnalysisType").
	Project("state", "State").
	Project("started_at", "StartedAt").
	Project("ended_at", "EndedAt").
	Project("package_ref", "PackageRef").
	Project("error", "Error").
	Project("status", "Status").
	Project("coherence_score", "Coherence").
	Project("compliance_status", "Compliance").
	Project("provider_used", "ProviderUsed").
	Project("metadata", "Metadata")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

func scanRun(s repository.Scanner) (Run, error) {
	var (
		r          Run
		ended      sql.NullTime
		packageRef sql.NullString
		errMsg     sql.NullString
		status     sql.NullString
		coherence  sql.NullFloat64
		compliance sql.NullString
		provider   sql.NullString
		metadata   []byte
	)

	err := s.Scan(
		&r.ID,
		&r.AnalysisID,
		&r.LSU,
		&r.AnalysisType,
		&r.State,
		&r.StartedAt,
		&ended,
		&packageRef,
		&errMsg,
		&status,
		&coherence,
		&compliance,
		&provider,
		&metadata,
	)
	if err != nil {
		return r, err
	}

	if ended.Valid {
		t := ended.Time.UTC()
		r.EndedAt = &t
	}
	if coherence.Valid {
		r.Coherence = &coherence.Float64
	}
	r.StartedAt = r.StartedAt.UTC()
	r.PackageRef = packageRef.String
	r.Error = errMsg.String
	r.Status = status.String
	r.Compliance = compliance.String
	r.ProviderUsed = provider.String

	if err := repository.ScanJSON(metadata, &r.Metadata); err != nil {
		return r, err
	}
	return r, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
