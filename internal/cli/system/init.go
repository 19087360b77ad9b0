package system

import (
	"fmt"

	"github.com/julianstephens/menuboard/internal/cli"
)

// InitCmd prepares local state and, with --server, the server database.
type InitCmd struct {
	Server bool `help:"Also create and migrate the server database."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	state, err := ctx.State()
	if err != nil {
		return err
	}
	if path := state.GetConfigPath(); path != "" {
		fmt.Fprintf(ctx.Out, "✓ State store ready at %s\n", path)
	} else {
		fmt.Fprintln(ctx.Out, "✓ State kept in memory for this process")
	}

	if !c.Server {
		return nil
	}
	store, err := ctx.ServerStore()
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize server database: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Server database ready at %s\n", store.GetConfigPath())
	return nil
}
