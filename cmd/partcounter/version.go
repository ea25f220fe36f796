package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsbench/partcounter/internal/version"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("partcounter %s\n", version.VERSION)
		fmt.Printf("  commit: %s\n", version.COMMIT)
		fmt.Printf("  built:  %s\n", version.BUILDTIME)
	},
}
