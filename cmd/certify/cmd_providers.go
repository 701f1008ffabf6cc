package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/certifier/internal/providers"
)

func newProvidersCmd(root *rootFlags) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List configured analysis providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			registry := s.providers.Registry()
			list := registry.Snapshot()
			if probe {
				list = registry.Refresh(cmd.Context())
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No providers enabled. Set an API key, e.g. CERTIFIER_GROQ_API_KEY.")
				return nil
			}
			printProviders(cmd, list, probe)
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Probe each provider before listing")
	return cmd
}

func printProviders(cmd *cobra.Command, list []providers.Provider, probed bool) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCAPABILITIES\tAVAILABLE\tERROR")
	for _, p := range list {
		caps := make([]string, len(p.Capabilities))
		for i, c := range p.Capabilities {
			caps[i] = string(c)
		}
		available := "unknown"
		if probed || !p.LastProbe.IsZero() {
			available = fmt.Sprintf("%t", p.Available)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, strings.Join(caps, ","), available, p.LastError)
	}
	tw.Flush()
}
