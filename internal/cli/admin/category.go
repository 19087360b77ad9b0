package admin

import (
	"fmt"

	"github.com/julianstephens/menuboard/internal/cli"
)

type CategoryAddCmd struct {
	Name string `arg:"" help:"Category name."`
}

func (c *CategoryAddCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.Backend().CreateCategory(ctx.Ctx, c.Name)
	if err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Added category %s (ID: %s)\n", cat.Name, cat.ID)
	return nil
}

type CategoryRenameCmd struct {
	Category string `arg:"" help:"Category ID or name."`
	Name     string `arg:"" help:"New name."`
}

func (c *CategoryRenameCmd) Run(ctx *cli.Context) error {
	cat, err := cli.FindCategory(ctx.Ctx, ctx.Backend(), c.Category)
	if err != nil {
		return err
	}
	updated, err := ctx.Backend().UpdateCategory(ctx.Ctx, cat.ID, c.Name)
	if err != nil {
		return fmt.Errorf("failed to rename category: %w", err)
	}
	ctx.Invalidate(cat.ID)
	fmt.Fprintf(ctx.Out, "✓ Renamed %s to %s\n", cat.Name, updated.Name)
	return nil
}

// CategoryDeleteCmd removes a category with all of its menu items and ratings.
type CategoryDeleteCmd struct {
	Category string `arg:"" help:"Category ID or name."`
}

func (c *CategoryDeleteCmd) Run(ctx *cli.Context) error {
	cat, err := cli.FindCategory(ctx.Ctx, ctx.Backend(), c.Category)
	if err != nil {
		return err
	}
	if err := ctx.Backend().DeleteCategory(ctx.Ctx, cat.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	ctx.Invalidate(cat.ID)
	fmt.Fprintf(ctx.Out, "✓ Deleted category %s\n", cat.Name)
	return nil
}
