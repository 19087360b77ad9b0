package system

import (
	"fmt"

	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/seed"
)

// SeedCmd loads categories, menu items and ratings from a YAML file straight
// into the server database.
type SeedCmd struct {
	File string `arg:"" type:"existingfile" help:"YAML seed file."`
}

func (c *SeedCmd) Run(ctx *cli.Context) error {
	f, err := seed.ParseFile(c.File)
	if err != nil {
		return err
	}
	store, err := ctx.ServerStore()
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to open server database: %w", err)
	}

	res, err := seed.Apply(ctx.Ctx, store, f)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Seeded %d categories, %d menu items, %d ratings\n", res.Categories, res.Menus, res.Ratings)
	return nil
}
