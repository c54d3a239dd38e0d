// Package cmd is the command line interface to manage items and labels.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/go-arrower/todo"
)

var ErrInvalidArgument = errors.New("invalid argument")

// NewRootCmd returns the todo command with all its sub commands.
func NewRootCmd() *cobra.Command {
	cli := &cli{vip: todo.DefaultViper()}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "Manage todo items and their labels",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cli.configFile, "config", "", "config file, e.g. ./todo.yaml")
	flags.String("backend", string(todo.MemoryBackend), "store backend: memory or postgres")
	flags.String("snapshot-dir", "", "folder the memory backend persists its data in")

	_ = cli.vip.BindPFlag("store.backend", flags.Lookup("backend"))
	_ = cli.vip.BindPFlag("store.snapshot_dir", flags.Lookup("snapshot-dir"))

	root.AddCommand(
		newItemsCmd(cli),
		newLabelsCmd(cli),
		newMigrateCmd(cli),
		newStatusCmd(cli),
		newVersionCmd(),
	)

	return root
}

type cli struct {
	vip        *todo.Viper
	configFile string
}

func (c *cli) config() (*todo.Config, error) {
	if c.configFile != "" {
		c.vip.SetConfigFile(c.configFile)

		if err := c.vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	conf := &todo.Config{}

	if err := c.vip.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	return conf, nil
}

// withApp initialises the dependencies before run is called and releases them afterwards.
func (c *cli) withApp(run func(ctx context.Context, cmd *cobra.Command, args []string, app *todo.Container) error) func(*cobra.Command, []string) error { //nolint:lll // ok
	return func(cmd *cobra.Command, args []string) (err error) {
		conf, err := c.config()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		app, err := todo.InitialiseDefaultDependencies(ctx, conf)
		if err != nil {
			return fmt.Errorf("could not initialise: %w", err)
		}

		defer func() {
			err = errors.Join(err, app.Shutdown(ctx))
		}()

		return run(ctx, cmd, args, app)
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id must be a positive number: %s", ErrInvalidArgument, arg)
	}

	return id, nil
}
