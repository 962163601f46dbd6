// Command seed loads the starter garment catalog and bootstraps admin accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/inkthread/storefront/internal/domain/identity"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/inkthread/storefront/internal/infrastructure/logger"
	"github.com/inkthread/storefront/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const adminPasswordEnv = "SEED_ADMIN_PASSWORD"

var (
	logLevel string

	adminEmail    string
	adminName     string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the storefront database",
	Long: `Seed loads reference data into the database named by the storefront config.

Available subcommands:
  garments - Insert the starter garment catalog (existing style codes are skipped)
  admin    - Create an admin account
  all      - Run garments, then admin`,
	SilenceUsage: true,
}

var garmentsCmd = &cobra.Command{
	Use:   "garments",
	Short: "Insert the starter garment catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, db *persistence.Database, log *zap.Logger) error {
			_, err := runGarments(ctx, db, log)
			return err
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an admin account",
	Long: `Create an admin account. The password is read from --password or the
` + adminPasswordEnv + ` environment variable.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, db *persistence.Database, log *zap.Logger) error {
			return runAdmin(ctx, db, log)
		})
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Seed garments and an admin account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, db *persistence.Database, log *zap.Logger) error {
			if _, err := runGarments(ctx, db, log); err != nil {
				return err
			}
			return runAdmin(ctx, db, log)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	for _, cmd := range []*cobra.Command{adminCmd, allCmd} {
		cmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
		cmd.Flags().StringVar(&adminName, "name", "Store Admin", "Admin display name")
		cmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (default $"+adminPasswordEnv+")")
		_ = cmd.MarkFlagRequired("email")
	}

	rootCmd.AddCommand(garmentsCmd, adminCmd, allCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withDatabase(ctx context.Context, fn func(context.Context, *persistence.Database, *zap.Logger) error) error {
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.Driver == "sqlite" || cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return fn(ctx, db, log)
}

func runGarments(ctx context.Context, db *persistence.Database, log *zap.Logger) (int, error) {
	created, err := seedGarments(ctx, persistence.NewGormGarmentRepository(db.DB), defaultCatalog, log)
	if err != nil {
		return created, fmt.Errorf("seed garments: %w", err)
	}
	log.Info("Garment catalog seeded", zap.Int("created", created), zap.Int("catalog_size", len(defaultCatalog)))
	return created, nil
}

func runAdmin(ctx context.Context, db *persistence.Database, log *zap.Logger) error {
	password := adminPassword
	if password == "" {
		password = os.Getenv(adminPasswordEnv)
	}
	if password == "" {
		return fmt.Errorf("admin password required: pass --password or set %s", adminPasswordEnv)
	}
	created, err := seedAdmin(ctx, persistence.NewGormAdminUserRepository(db.DB), adminEmail, adminName, password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !created {
		log.Info("Admin already exists", zap.String("email", strings.ToLower(adminEmail)))
		return nil
	}
	log.Info("Admin created", zap.String("email", strings.ToLower(adminEmail)))
	return nil
}

// seedAdmin creates the admin unless the email is already registered.
func seedAdmin(ctx context.Context, repo identity.AdminUserRepository, email, name, password string) (bool, error) {
	user, err := identity.NewAdminUser(email, name, password)
	if err != nil {
		return false, err
	}
	exists, err := repo.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := repo.Save(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
