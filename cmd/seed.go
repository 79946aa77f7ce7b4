package cmd

import (
	"context"
	"os"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/app"
	"github.com/nguyentranbao-ct/team-chat/internal/setup"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the users and channels of a workspace file, skipping existing channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := setup.DefaultWorkspace
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				data = b
			}
			ws, err := setup.ParseWorkspace(data)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			a := app.Invoke(func(chat usecase.ChatUsecase, users usecase.UserUsecase) error {
				return setup.NewSeeder(chat, users).Seed(ctx, ws)
			})
			if err := a.Err(); err != nil {
				return err
			}
			if err := a.Start(ctx); err != nil {
				return err
			}
			return a.Stop(ctx)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "workspace YAML file, the bundled demo workspace when empty")
	return cmd
}
