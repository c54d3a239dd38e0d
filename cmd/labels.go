package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-arrower/todo"
	"github.com/go-arrower/todo/item"
)

func newLabelsCmd(cli *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "labels",
		Aliases: []string{"label", "l"},
		Short:   "Manage the labels items can be tagged with",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a new label",
			Args:  cobra.ExactArgs(1),
			RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, app *todo.Container) error {
				label, err := app.Labels.Create(ctx, item.CreateLabel{Name: args[0]})
				if err != nil {
					return fmt.Errorf("could not create label: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", label.ID, labelColor.Sprint(label.Name))

				return nil
			}),
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List all labels",
			Args:    cobra.NoArgs,
			RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, _ []string, app *todo.Container) error {
				labels, err := app.Labels.All(ctx)
				if err != nil {
					return fmt.Errorf("could not list labels: %w", err)
				}

				w := cmd.OutOrStdout()

				if len(labels) == 0 {
					fmt.Fprintln(w, "no labels")
				}

				for _, l := range labels {
					fmt.Fprintf(w, "%d %s\n", l.ID, labelColor.Sprint(l.Name))
				}

				return nil
			}),
		},
		&cobra.Command{
			Use:     "delete ID",
			Aliases: []string{"rm"},
			Short:   "Delete a label and remove it from all items",
			Args:    cobra.ExactArgs(1),
			RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, app *todo.Container) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}

				if err = app.Labels.Delete(ctx, item.LabelID(id)); err != nil {
					return fmt.Errorf("could not delete label: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "deleted label %d\n", id)

				return nil
			}),
		},
	)

	return cmd
}
