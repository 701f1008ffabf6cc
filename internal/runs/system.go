package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/certifier/pkg/pagination"
	"github.com/JaimeStill/certifier/pkg/storage"
)

// PackageName is the blob name of a run's artifact package.
const PackageName = "package.json"

// System defines the public contract for run operations.
type System interface {
	Store
	Handler() *Handler

	// SavePackage uploads a run's encoded artifact package and returns its key.
	SavePackage(ctx context.Context, id uuid.UUID, data []byte) (string, error)
	// Package returns the encoded artifact package of a completed run.
	Package(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type system struct {
	Store
	blobs      storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the run System over a Store and blob storage.
func New(
	store Store,
	blobs storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &system{
		Store:      store,
		blobs:      blobs,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}

func (s *system) SavePackage(ctx context.Context, id uuid.UUID, data []byte) (string, error) {
	key := s.blobs.Key(id.String(), PackageName)
	if err := s.blobs.Upload(ctx, key, data, storage.ContentTypeJSON); err != nil {
		return "", fmt.Errorf("upload package for run %s: %w", id, err)
	}
	return key, nil
}

func (s *system) Package(ctx context.Context, id uuid.UUID) ([]byte, error) {
	run, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.PackageRef == "" {
		return nil, ErrNoPackage
	}

	data, err := s.blobs.Download(ctx, run.PackageRef)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoPackage
	}
	if err != nil {
		return nil, fmt.Errorf("download package for run %s: %w", id, err)
	}
	return data, nil
}
