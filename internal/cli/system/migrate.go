package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/menuboard/internal/cli"
)

type migrator interface {
	Migrate(ctx context.Context) (int, error)
}

// MigrateCmd applies pending schema migrations to the server database.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	store, err := ctx.ServerStore()
	if err != nil {
		return err
	}
	m, ok := store.(migrator)
	if !ok {
		return fmt.Errorf("server store %T does not support migrations", store)
	}

	count, err := m.Migrate(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count == 0 {
		fmt.Fprintln(ctx.Out, "No migrations to apply. Database is up to date.")
	} else {
		fmt.Fprintf(ctx.Out, "Successfully applied %d migration(s).\n", count)
	}
	return nil
}
