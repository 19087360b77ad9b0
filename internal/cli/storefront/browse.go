package storefront

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/tui"
)

type CategoriesCmd struct{}

func (c *CategoriesCmd) Run(ctx *cli.Context) error {
	cats, err := ctx.Backend().ListCategories(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Fprintln(ctx.Out, "No categories yet.")
		return nil
	}
	for _, cat := range cats {
		fmt.Fprintf(ctx.Out, "[%s] %s\n", cat.ID, cat.Name)
	}
	return nil
}

// MenuCmd shows a category's listing through the session cache.
type MenuCmd struct {
	Category string `arg:"" help:"Category ID or name."`
}

func (c *MenuCmd) Run(ctx *cli.Context) error {
	cat, err := cli.FindCategory(ctx.Ctx, ctx.Backend(), c.Category)
	if err != nil {
		return err
	}
	ctrl, err := ctx.Session()
	if err != nil {
		return err
	}

	view, err := ctrl.SelectCategory(ctx.Ctx, cat.ID)
	if err != nil && !view.Stale {
		return err
	}

	fmt.Fprintf(ctx.Out, "%s\n", cat.Name)
	if view.Stale {
		fmt.Fprintf(ctx.Out, "⚠️  %s (showing last known menu)\n", errors.Format(view.Err))
	}
	if len(view.Items) == 0 {
		fmt.Fprintln(ctx.Out, "  No menu items.")
		return nil
	}
	for _, it := range view.Items {
		fmt.Fprintf(ctx.Out, "  %s\n", cli.FormatItem(it))
	}
	return nil
}

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Session()
	if err != nil {
		return err
	}
	p := tea.NewProgram(tui.NewModel(ctx.Ctx, ctrl, ctx.Backend()), tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("storefront exited: %w", err)
	}
	return nil
}
