package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-arrower/todo"
)

func newStatusCmd(cli *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the status of the store as json",
		Args:  cobra.NoArgs,
		RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, _ []string, app *todo.Container) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if err := enc.Encode(app.Status(ctx)); err != nil {
				return fmt.Errorf("could not print status: %w", err)
			}

			return nil
		}),
	}
}
