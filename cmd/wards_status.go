package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/ward"
)

var wardsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ward geocoding progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		if err := cfg.Validate("status"); err != nil {
			return err
		}

		st, err := openWardStore(ctx)
		if err != nil {
			return eris.Wrap(err, "wards status: open store")
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "wards status: stats")
		}

		return renderStats(cmd.OutOrStdout(), stats, format)
	},
}

func init() {
	wardsStatusCmd.Flags().String("format", "text", "output format: text, json or yaml")
	wardsCmd.AddCommand(wardsStatusCmd)
}

func renderStats(w io.Writer, s *ward.Stats, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return eris.Wrap(err, "wards status: encode yaml")
		}
		return enc.Close()
	case "text", "":
		pct := 0.0
		if s.Total > 0 {
			pct = float64(s.Resolved) / float64(s.Total) * 100
		}
		fmt.Fprintln(w, "=== Ward Geocoding ===")
		fmt.Fprintf(w, "  Total:        %d\n", s.Total)
		fmt.Fprintf(w, "  Resolved:     %d (%.1f%%)\n", s.Resolved, pct)
		fmt.Fprintf(w, "  Unresolvable: %d\n", s.Unresolvable)
		fmt.Fprintf(w, "  Pending:      %d\n", s.Pending)
		return nil
	default:
		return eris.Errorf("wards status: unknown format %q", format)
	}
}
