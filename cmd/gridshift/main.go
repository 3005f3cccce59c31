package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
)

var rootCmd = &cobra.Command{
	Use:   "gridshift",
	Short: "JGD correction-grid datum transformation",
	Long: `gridshift transforms geodetic coordinates with the GSI correction parameter
grids (TKY2JGD, PatchJGD, SemiDynaEXE, geonetF3, ITRF2014 and friends), either
from the command line or as an HTTP service.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(forwardCmd)
	rootCmd.AddCommand(backwardCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(reloadCmd)
}

func main() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
