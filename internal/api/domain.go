package api

import (
	"github.com/JaimeStill/certifier/internal/engine"
	"github.com/JaimeStill/certifier/internal/policy"
	"github.com/JaimeStill/certifier/internal/runs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Runs   runs.System
	Engine *engine.Engine
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	runsSystem := runs.New(
		runs.NewRepository(runtime.Database.Connection(), runtime.Logger),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	eng, err := engine.New(
		&runtime.Engine,
		runtime.Providers,
		runsSystem,
		policy.NewValidator(&runtime.Policy, nil),
		runtime.Version,
		runtime.Logger,
	)
	if err != nil {
		return nil, err
	}

	return &Domain{
		Runs:   runsSystem,
		Engine: eng,
	}, nil
}
