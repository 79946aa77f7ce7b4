package cmd

import (
	"github.com/nguyentranbao-ct/team-chat/internal/app"
	"github.com/nguyentranbao-ct/team-chat/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the live websocket endpoint and the kafka fan-out",
		Run: func(cmd *cobra.Command, args []string) {
			app.Invoke(
				server.StartServer,
				app.StartConsumer,
			).Run()
		},
	}
}
