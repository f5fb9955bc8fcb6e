package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ci-tooling/test-reliability/pkg/history"
	"github.com/ci-tooling/test-reliability/pkg/reliability"
)

func main() {
	cmd := &cobra.Command{
		Use:  "test-reliability",
		Long: `Commands associated with build-reliability analytics over CI test results`,
	}

	cmd.AddCommand(reliability.NewAnalyzeCommand())
	cmd.AddCommand(history.NewHistoryCommand())
	cmd.AddCommand(history.NewExportCommand())
	cmd.AddCommand(history.NewClearCommand())

	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("Command failed")
	}
}
