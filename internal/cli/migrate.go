package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/victornm/asking/internal/store/postgres/migrations"
)

func newMigrateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(f)
			if err != nil {
				return err
			}

			if c.Postgres.Addr == "" {
				return fmt.Errorf("postgres.addr not configured")
			}

			return migrations.Up(cmd.Context(), c.PostgresDSN())
		},
	}
}
