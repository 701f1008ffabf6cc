package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/certifier/internal/config"
	"github.com/JaimeStill/certifier/internal/engine"
	"github.com/JaimeStill/certifier/internal/policy"
	"github.com/JaimeStill/certifier/internal/providers"
	"github.com/JaimeStill/certifier/internal/runs"
	"github.com/JaimeStill/certifier/pkg/pagination"
	"github.com/JaimeStill/certifier/pkg/storage"
)

type rootFlags struct {
	config  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "certify",
		Short: "Certify governance requirements for semantic integrity",
		Long: "certify runs a requirement through the stabilizer checks, issues a signed\n" +
			"certificate, and reports compliance. Runs are kept in memory.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "Path to a TOML config file (default: config.toml when present)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	cmd.AddCommand(newAnalyzeCmd(flags))
	cmd.AddCommand(newProvidersCmd(flags))
	return cmd
}

// session is the in-process wiring shared by subcommands.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	providers *providers.Orchestrator
}

func newSession(flags *rootFlags, stderr io.Writer) (*session, error) {
	cfg, err := config.LoadStandalone(flags.config)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return &session{
		cfg:       cfg,
		logger:    logger,
		providers: providers.New(&cfg.Providers, nil, logger),
	}, nil
}

func (s *session) engine() (*engine.Engine, runs.System, error) {
	sys := runs.New(runs.NewMemoryStore(), storage.NewMemory("runs"), s.logger, pagination.Config{})

	eng, err := engine.New(
		&s.cfg.Engine,
		s.providers,
		sys,
		policy.NewValidator(&s.cfg.Policy, nil),
		s.cfg.Version,
		s.logger,
	)
	if err != nil {
		return nil, nil, err
	}
	return eng, sys, nil
}
