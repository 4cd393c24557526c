package main

import (
	"os"

	"github.com/nirvanamm/nirvanamm/cmd/nirvanamm"
)

func main() {
	rootCmd := nirvanamm.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		nirvanamm.ReportError(rootCmd, err)
		os.Exit(1)
	}
}
