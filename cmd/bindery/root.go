package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "bindery",
	Short: "Comic chapter downloader and PDF binder",
	Long: `Bindery downloads comic chapters from supported source sites and binds
each chapter's pages into a PDF.

The pipeline includes:
  - Headless-browser chapter discovery with layered URL extraction
  - Concurrent image acquisition with nested retry budgets
  - Image normalization (resize, dimension clamping, JPEG re-encode)
  - Per-chapter PDF assembly and a browsable HTML index
  - Archive promotion once the source reports the book finished`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bindery/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bindery home directory (default: ~/.bindery)",
	)

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
