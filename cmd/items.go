package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-arrower/todo"
	"github.com/go-arrower/todo/item"
)

func newItemsCmd(cli *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item", "i"},
		Short:   "Manage todo items",
	}

	cmd.AddCommand(
		newItemsCreateCmd(cli),
		newItemsListCmd(cli),
		newItemsShowCmd(cli),
		newItemsUpdateCmd(cli),
		newItemsDeleteCmd(cli),
	)

	return cmd
}

func newItemsCreateCmd(cli *cli) *cobra.Command {
	var labels []int64

	cmd := &cobra.Command{
		Use:   "create TEXT",
		Short: "Create a new item",
		Args:  cobra.ExactArgs(1),
		RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, app *todo.Container) error {
			it, err := app.Items.Create(ctx, item.CreateItem{
				Text:     args[0],
				LabelIDs: toLabelIDs(labels),
			})
			if err != nil {
				return fmt.Errorf("could not create item: %w", err)
			}

			printItem(cmd.OutOrStdout(), it)

			return nil
		}),
	}

	cmd.Flags().Int64SliceVarP(&labels, "label", "l", nil, "id of a label to add, can be repeated")

	return cmd
}

func newItemsListCmd(cli *cli) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all items",
		Args:    cobra.NoArgs,
		RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, _ []string, app *todo.Container) error {
			items, err := app.Items.All(ctx)
			if err != nil {
				return fmt.Errorf("could not list items: %w", err)
			}

			w := cmd.OutOrStdout()
			shown := 0

			for _, it := range items {
				if open && it.Completed {
					continue
				}

				printItem(w, it)
				shown++
			}

			if shown == 0 {
				fmt.Fprintln(w, "no items")
			}

			return nil
		}),
	}

	cmd.Flags().BoolVar(&open, "open", false, "show only items that are not completed")

	return cmd
}

func newItemsShowCmd(cli *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a single item",
		Args:  cobra.ExactArgs(1),
		RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, app *todo.Container) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			it, err := app.Items.Find(ctx, item.ID(id))
			if err != nil {
				return fmt.Errorf("could not show item: %w", err)
			}

			printItem(cmd.OutOrStdout(), it)

			return nil
		}),
	}
}

func newItemsUpdateCmd(cli *cli) *cobra.Command {
	var (
		text        string
		completed   bool
		labels      []int64
		clearLabels bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the text, completion or labels of an item",
		Long: `Change the text, completion or labels of an item.
Only the given flags are changed, everything else is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, app *todo.Container) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			update := item.NewUpdate()

			if flags.Changed("text") {
				update = update.WithText(text)
			}

			if flags.Changed("completed") {
				update = update.WithCompleted(completed)
			}

			if flags.Changed("label") {
				update = update.WithLabels(toLabelIDs(labels)...)
			}

			if clearLabels {
				update = update.WithLabels()
			}

			it, err := app.Items.Update(ctx, item.ID(id), update)
			if err != nil {
				return fmt.Errorf("could not update item: %w", err)
			}

			printItem(cmd.OutOrStdout(), it)

			return nil
		}),
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "new text of the item")
	cmd.Flags().BoolVarP(&completed, "completed", "c", false, "mark the item as completed, use --completed=false to reopen")
	cmd.Flags().Int64SliceVarP(&labels, "label", "l", nil, "replace the labels, can be repeated")
	cmd.Flags().BoolVar(&clearLabels, "clear-labels", false, "remove all labels")
	cmd.MarkFlagsMutuallyExclusive("label", "clear-labels")

	return cmd
}

func newItemsDeleteCmd(cli *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete one or more items",
		Args:    cobra.MinimumNArgs(1),
		RunE: cli.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, app *todo.Container) error {
			ids := make([]item.ID, 0, len(args))

			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}

				ids = append(ids, item.ID(id))
			}

			w := cmd.OutOrStdout()
			g, ctx := errgroup.WithContext(ctx)

			for _, id := range ids {
				g.Go(func() error {
					if err := app.Items.Delete(ctx, id); err != nil {
						return fmt.Errorf("could not delete item %d: %w", id, err)
					}

					fmt.Fprintf(w, "deleted item %d\n", id)

					return nil
				})
			}

			return g.Wait() //nolint:wrapcheck // errors are wrapped in the group
		}),
	}
}

func toLabelIDs(ids []int64) []item.LabelID {
	labelIDs := make([]item.LabelID, 0, len(ids))

	for _, id := range ids {
		labelIDs = append(labelIDs, item.LabelID(id))
	}

	return labelIDs
}

var (
	completedColor = color.New(color.FgGreen)
	labelColor     = color.New(color.FgCyan)
)

func printItem(w io.Writer, it item.Item) {
	check := "[ ]"
	if it.Completed {
		check = "[x]"
	}

	line := fmt.Sprintf("%d %s %s", it.ID, check, it.Text)
	if it.Completed {
		line = completedColor.Sprint(line)
	}

	if len(it.Labels) > 0 {
		names := make([]string, 0, len(it.Labels))
		for _, l := range it.Labels {
			names = append(names, l.Name)
		}

		line += " " + labelColor.Sprintf("(%s)", strings.Join(names, ", "))
	}

	fmt.Fprintln(w, line)
}
