package cmd

import (
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "team-chat",
	Short:         "Team chat backend and terminal feed client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newSeedCmd(), newTailCmd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.MustNamed("cmd").Fatalw("command failed", "error", err)
	}
}
