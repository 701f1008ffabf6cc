package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/certifier/internal/engine"
)

type analyzeFlags struct {
	analysisType string
	provider     string
	mode         string
	file         string
	output       string
	json         bool
	seed         uint64
}

func newAnalyzeCmd(root *rootFlags) *cobra.Command {
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [requirement]",
		Short: "Certify one requirement",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.analysisType, "type", engine.AnalysisFull, "Analysis type: full, security, compliance or performance")
	f.StringVar(&flags.provider, "provider", "", "Preferred provider name, or hybrid for every provider")
	f.StringVar(&flags.mode, "mode", engine.ModePolicyEngine, "Integration mode: policy-engine or standalone")
	f.StringVarP(&flags.file, "file", "f", "", "Read the requirement from a file (- for stdin)")
	f.StringVarP(&flags.output, "output", "o", "", "Write the signed artifact package to this path")
	f.BoolVar(&flags.json, "json", false, "Print the full response as JSON")
	f.Uint64Var(&flags.seed, "seed", 0, "Seed for locally decided checks (0 seeds from the clock)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootFlags, flags *analyzeFlags, args []string) error {
	lsu, err := readRequirement(cmd.InOrStdin(), flags.file, args)
	if err != nil {
		return err
	}

	s, err := newSession(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if flags.seed != 0 {
		s.cfg.Engine.Seed = flags.seed
	}

	eng, _, err := s.engine()
	if err != nil {
		return err
	}

	resp, err := eng.Analyze(cmd.Context(), engine.Request{
		LSU:                lsu,
		AnalysisType:       flags.analysisType,
		ProviderPreference: flags.provider,
		IntegrationMode:    flags.mode,
	})
	if err != nil {
		return err
	}

	if flags.output != "" && resp.Result != nil {
		data, err := json.MarshalIndent(resp.Result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode package: %w", err)
		}
		if err := os.WriteFile(flags.output, data, 0644); err != nil {
			return fmt.Errorf("write package: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if flags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printSummary(out, resp)
	return nil
}

func readRequirement(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass the requirement as an argument or with --file, not both")
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read requirement: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", errors.New("requirement required: pass it as an argument or with --file")
}

func printSummary(out io.Writer, resp *engine.Response) {
	fmt.Fprintf(out, "Analysis:    %s\n", resp.AnalysisID)
	fmt.Fprintf(out, "Compliance:  %s\n", resp.ComplianceStatus)
	fmt.Fprintf(out, "Provider:    %s\n", resp.ProviderUsed)

	if resp.Result != nil {
		c := resp.Result.Certificate
		fmt.Fprintf(out, "Status:      %s (%.2f)\n", c.Status, c.CoherenceScore)
		fmt.Fprintf(out, "Severity:    %s\n", c.RiskAssessment.Severity)
		fmt.Fprintf(out, "Syndrome:    %v\n", c.SyndromeVector)
		if c.FaultLocation != "" {
			fmt.Fprintf(out, "Fault:       %s\n", c.FaultLocation)
		}
		if c.RecommendedAction != "" {
			fmt.Fprintf(out, "Action:      %s\n", c.RecommendedAction)
		}
	}
	if resp.PolicyValidation != nil {
		fmt.Fprintf(out, "Policy:      valid=%t %s\n", resp.PolicyValidation.Valid, strings.Join(resp.PolicyValidation.Errors, "; "))
	}

	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(out, "Recommendations:")
		for _, r := range resp.Recommendations {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
}
