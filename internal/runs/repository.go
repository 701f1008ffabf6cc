package runs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/certifier/pkg/pagination"
	"github.com/JaimeStill/certifier/pkg/query"
	"github.com/JaimeStill/certifier/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a PostgreSQL-backed Store.
func NewRepository(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("store", "postgres"),
	}
}

func (r *repo) Create(ctx context.Context, run *Run) error {
	metadata, err := repository.JSONValue(run.Metadata)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO runs(id, analysis_id, lsu, analysis_type, state, started_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, q,
		run.ID, run.AnalysisID, run.LSU, run.AnalysisType, run.State, run.StartedAt, metadata,
	); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Debug("run created", "id", run.ID, "analysis_id", run.AnalysisID, "state", run.State)
	return nil
}

func (r *repo) Update(ctx context.Context, run *Run) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var current State
		if err := tx.QueryRowContext(ctx,
			"SELECT state FROM runs WHERE id = $1 FOR UPDATE", run.ID,
		).Scan(&current); err != nil {
			return struct{}{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		if current.Terminal() {
			return struct{}{}, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current)
		}

		q := `
			UPDATE runs
			SET state = $2, started_at = $3, ended_at = $4, package_ref = $5, error = $6,
				status = $7, coherence_score = $8, compliance_status = $9, provider_used = $10
			WHERE id = $1`

		err := repository.ExecExpectOne(ctx, tx, q,
			run.ID,
			run.State,
			run.StartedAt,
			nullableTime(run.EndedAt),
			nullable(run.PackageRef),
			nullable(run.Error),
			nullable(run.Status),
			nullableFloat(run.Coherence),
			nullable(run.Compliance),
			nullable(run.ProviderUsed),
		)
		if err != nil {
			return struct{}{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("run updated", "id", run.ID, "state", run.State)
	return nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Run], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "LSU", "AnalysisID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Offset(), page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}
