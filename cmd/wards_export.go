package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/ward"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/wardexport"
)

var wardsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export geocoded wards as GeoJSON or a shapefile",
	Long: `Writes every ward with coordinates as a point feature. GeoJSON goes to
stdout unless --out is given; the shapefile format needs an --out path
ending in .shp.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := openWardStore(ctx)
		if err != nil {
			return eris.Wrap(err, "wards export: open store")
		}
		defer st.Close() //nolint:errcheck

		wards, err := st.ListResolved(ctx)
		if err != nil {
			return eris.Wrap(err, "wards export: list resolved")
		}

		if err := exportWards(cmd.OutOrStdout(), wards, format, out); err != nil {
			return err
		}
		zap.L().Info("exported wards", zap.Int("count", len(wards)), zap.String("format", format), zap.String("out", out))
		return nil
	},
}

func init() {
	f := wardsExportCmd.Flags()
	f.String("format", "geojson", "output format: geojson or shp")
	f.StringP("out", "o", "", "output file (required for shp)")
	wardsCmd.AddCommand(wardsExportCmd)
}

func exportWards(stdout io.Writer, wards []ward.Located, format, out string) error {
	switch format {
	case "geojson":
		if out == "" || out == "-" {
			return wardexport.WriteGeoJSON(stdout, wards)
		}
		f, err := os.Create(filepath.Clean(out))
		if err != nil {
			return eris.Wrap(err, "wards export: create output")
		}
		if err := wardexport.WriteGeoJSON(f, wards); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrap(f.Close(), "wards export: close output")
	case "shp":
		if out == "" {
			return eris.New("wards export: --out is required for the shp format")
		}
		return wardexport.WriteShapefile(out, wards)
	default:
		return eris.Errorf("wards export: unknown format %q", format)
	}
}
