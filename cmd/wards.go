package main

import "github.com/spf13/cobra"

var wardsCmd = &cobra.Command{
	Use:   "wards",
	Short: "Ward geocoding",
	Long:  "Geocode administrative wards through Nominatim and inspect or export the results.",
}

func init() { rootCmd.AddCommand(wardsCmd) }
