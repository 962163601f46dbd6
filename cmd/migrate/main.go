// Command migrate manages the PostgreSQL schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/inkthread/storefront/internal/infrastructure/logger"
	"github.com/inkthread/storefront/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

var (
	migrationsPath string
	logLevel       string
	confirmDrop    bool

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the storefront database schema",
	Long: `Migrate applies the versioned SQL schema to the database named by the
storefront config (config.toml or APPAREL_DATABASE_* variables).

SQL embedded in the binary is used unless --path points at a directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		var err error
		log, err = logger.New(&logger.Config{
			Level:      logLevel,
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "2006-01-02 15:04:05",
		})
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		if migrationsPath != "" {
			if migrationsPath, err = filepath.Abs(migrationsPath); err != nil {
				return fmt.Errorf("resolve migrations path: %w", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync(log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "Migrations directory (default: SQL embedded in the binary)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	dropCmd.Flags().BoolVar(&confirmDrop, "confirm", false, "Confirm dropping every table")

	rootCmd.AddCommand(
		schemaCommand("up", "Apply all pending migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Up()
		}),
		schemaCommand("down", "Roll back all migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Down()
		}),
		schemaCommand("step <n>", "Apply n migrations (negative rolls back)", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
		schemaCommand("goto <version>", "Migrate to a specific version", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(v))
		}),
		schemaCommand("force <version>", "Set the version and clear the dirty flag", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(v)
		}),
		schemaCommand("status", "Show the applied version and pending migrations", cobra.NoArgs, printStatus),
		dropCmd,
		createCmd,
		listCmd,
	)
}

var dropCmd = schemaCommand("drop", "Drop every table", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
	if !confirmDrop {
		return errors.New("drop cancelled: pass --confirm to drop every table")
	}
	return m.Drop()
})

var createCmd = &cobra.Command{
	Use:   "create <name> [description]",
	Short: "Create a new up/down migration pair",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsDir
		}
		var description string
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(dir, args[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			names []string
			err   error
		)
		if migrationsPath == "" {
			names, err = migration.EmbeddedMigrations()
		} else {
			names, err = migration.ListMigrations(migrationsPath)
		}
		if err != nil {
			return err
		}
		for _, name := range names {
			cmd.Println("  -", name)
		}
		return nil
	},
}

// schemaCommand builds a subcommand that runs fn against an open migrator
func schemaCommand(use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *migration.Migrator) error {
				return fn(m, args)
			})
		},
	}
}

func withMigrator(ctx context.Context, fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		return errors.New("SQL migrations target PostgreSQL; SQLite databases are created with auto-migrate")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func printStatus(m *migration.Migrator, _ []string) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	log.Info("Schema status",
		zap.Uint("version", st.Version),
		zap.Uint("latest", st.Latest),
		zap.Int("pending", st.Pending),
		zap.Bool("dirty", st.Dirty),
	)
	if st.Dirty {
		log.Warn("Schema is dirty; fix the failed migration and run force <version>")
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
