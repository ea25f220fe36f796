package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/partsbench/partcounter/internal/version"
	"github.com/partsbench/partcounter/pkg/log"
)

var (
	logLevel   string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "partcounter",
	Short: "partcounter counts mechanical parts on a vibration tray",
	Long: `A factory-floor counting service for nuts, bolts, screws and washers.
Version: ` + version.VERSION + `/` + version.COMMIT,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.InitLog(logLevel)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "etc/partcounter.yaml", "Path to config file")

	rootCmd.AddCommand(serveCommand)
	rootCmd.AddCommand(analyzeCommand)
	rootCmd.AddCommand(versionCommand)
}
