// Package cli builds the tmsctl command tree: migrations, fixture seeding,
// a one-off auto-assignment batch and dead-letter inspection.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/tms-backend/internal/assignment"
	"github.com/angelmondragon/tms-backend/internal/seed"
	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/migrate"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
)

// environment resolves configuration and connections for a command. Tests
// swap the loaders.
type environment struct {
	envFile    string
	loadConfig func() (*config.Config, error)
	openDB     func(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*db.Client, func(), error)
	logg       *logger.Logger
}

func defaultEnvironment() *environment {
	return &environment{
		loadConfig: config.Load,
		openDB: func(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*db.Client, func(), error) {
			client, err := db.New(ctx, cfg.DB, logg)
			if err != nil {
				return nil, nil, err
			}
			return client, func() { _ = client.Close() }, nil
		},
	}
}

func (e *environment) config() (*config.Config, error) {
	if e.envFile != "" {
		if err := godotenv.Load(e.envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", e.envFile, err)
		}
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Service.Kind = "tmsctl"
	if e.logg == nil {
		e.logg = logger.New(logger.Options{
			ServiceName: "tmsctl",
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
			Output:      os.Stderr,
			Format:      cfg.App.LogFormat,
		})
	}
	return cfg, nil
}

func (e *environment) database(ctx context.Context) (*config.Config, *db.Client, func(), error) {
	cfg, err := e.config()
	if err != nil {
		return nil, nil, nil, err
	}
	client, closeFn, err := e.openDB(ctx, cfg, e.logg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, client, closeFn, nil
}

// BuildCLI returns the root tmsctl command.
func BuildCLI() *cobra.Command {
	return newRootCommand(defaultEnvironment())
}

func newRootCommand(env *environment) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tmsctl",
		Short:         "Operational tooling for the TMS backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&env.envFile, "env-file", ".env", "dotenv file read before TMS_* variables")

	rootCmd.AddCommand(buildMigrateCommand(env))
	rootCmd.AddCommand(buildSeedCommand(env))
	rootCmd.AddCommand(buildAutoAssignCommand(env))
	rootCmd.AddCommand(buildOutboxCommand(env))

	return rootCmd
}

func buildMigrateCommand(env *environment) *cobra.Command {
	var dir string
	var embedded bool

	source := func() migrate.Source {
		if embedded {
			return migrate.EmbeddedSource()
		}
		return migrate.DiskSource(dir)
	}

	withDB := func(cmd *cobra.Command, fn func(ctx context.Context, client *db.Client) error) error {
		ctx := cmd.Context()
		_, client, closeFn, err := env.database(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(ctx, client)
	}

	run := func(command string) *cobra.Command {
		return &cobra.Command{
			Use:   command,
			Short: fmt.Sprintf("goose %s", command),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(ctx context.Context, client *db.Client) error {
					sqlDB, err := client.DB().DB()
					if err != nil {
						return err
					}
					return migrate.Run(ctx, sqlDB, source(), command)
				})
			},
		}
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect SQL migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "migrations directory")
	cmd.PersistentFlags().BoolVar(&embedded, "embedded", false, "use the migrations compiled into the binary")

	cmd.AddCommand(run("up"), run("down"), run("status"))
	cmd.AddCommand(&cobra.Command{
		Use:   "to VERSION",
		Short: "Migrate up or down to VERSION (YYYYMMDDHHMMSS)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, client *db.Client) error {
				sqlDB, err := client.DB().DB()
				if err != nil {
					return err
				}
				return migrate.MigrateToVersion(ctx, sqlDB, source(), args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Write a new SQL migration template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, args[0])
			if err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check migration annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrate.ValidateDir(dir); err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	})
	return cmd
}

func buildSeedCommand(env *environment) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML fixture into the database",
		Long:  "Load a YAML fixture. Rows already present (matched on natural keys) are left untouched. Without --file the built-in development fixture is used.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, client, closeFn, err := env.database(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			seeder, err := seed.NewSeeder(seed.SeederParams{Tx: client, Passwords: cfg.Password, Logger: env.logg})
			if err != nil {
				return err
			}
			summary, err := seeder.Apply(ctx, fixture)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (YAML)")
	return cmd
}

func buildAutoAssignCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoassign",
		Short: "Run one auto-assignment batch and print the decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, client, closeFn, err := env.database(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			permission, err := enums.ParsePermission(cfg.Dispatch.EligibilityPermission)
			if err != nil {
				return err
			}
			conn := client.DB()
			svc, err := assignment.NewService(assignment.ServiceParams{
				Repo:          assignment.NewRepository(conn),
				Tx:            client,
				Outbox:        outbox.NewEmitter(outbox.NewRepository(conn), env.logg),
				Logger:        env.logg,
				MaxActiveJobs: cfg.Dispatch.MaxActiveJobs,
				Permission:    permission,
			})
			if err != nil {
				return err
			}
			summary, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
	return cmd
}

func buildOutboxCommand(env *environment) *cobra.Command {
	var (
		reason string
		limit  int
		window time.Duration
	)

	dlq := &cobra.Command{
		Use:   "dlq",
		Short: "List dead-lettered outbox events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := enums.OutboxDLQErrorReason(reason)
			if reason != "" && !filter.IsValid() {
				return fmt.Errorf("unknown reason %q", reason)
			}
			var since time.Time
			if window > 0 {
				since = time.Now().Add(-window)
			}
			ctx := cmd.Context()
			_, client, closeFn, err := env.database(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			rows, err := outbox.NewDLQRepository(client.DB()).List(ctx, outbox.DLQFilter{Reason: filter, Since: since, Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "no dead-lettered events")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EVENT ID\tTYPE\tAGGREGATE\tREASON\tATTEMPTS\tFAILED AT")
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s/%s\t%s\t%d\t%s\n",
					row.EventID, row.EventType, row.AggregateType, row.AggregateID,
					row.ErrorReason, row.AttemptCount, row.FailedAt.UTC().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	dlq.Flags().StringVar(&reason, "reason", "", "filter by reason (max_attempts, non_retryable)")
	dlq.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	dlq.Flags().DurationVar(&window, "since", 0, "only rows that failed within this window, e.g. 24h")

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect the transactional outbox",
	}
	cmd.AddCommand(dlq)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
