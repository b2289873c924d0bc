package cli

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Applies the embedded SQL migrations to PostgreSQL, recording each one in
schema_migrations. With --rollback the most recent migration is reverted.
SQLite databases are auto-migrated from the models and can not be rolled back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if a.cfg.Database.Driver == "sqlite" {
				return a.withDB(func(db *gorm.DB) error {
					return database.RunMigrations(ctx, db, a.logger)
				})
			}

			db, err := database.OpenSQL(a.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if rollback {
				return database.Rollback(ctx, db, migrations.FS, a.logger)
			}
			return database.ApplySQL(ctx, db, migrations.FS, a.logger)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the last applied migration")
	return cmd
}
