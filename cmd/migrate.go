package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/todo"
	"github.com/go-arrower/todo/postgres"
)

var ErrUnsupportedBackend = errors.New("unsupported backend")

func newMigrateCmd(cli *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the postgres schema to the latest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := cli.config()
			if err != nil {
				return err
			}

			if conf.Store.Backend != todo.PostgresBackend {
				return fmt.Errorf("%w: migrations only apply to the %s backend", ErrUnsupportedBackend, todo.PostgresBackend)
			}

			pg, err := postgres.ConnectAndMigrate(cmd.Context(), conf.PostgresConfig(), noop.NewTracerProvider())
			if err != nil {
				return fmt.Errorf("could not migrate: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated database %s\n", conf.Postgres.Database)

			return pg.Shutdown(cmd.Context())
		},
	}
}
