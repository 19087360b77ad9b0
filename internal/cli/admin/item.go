package admin

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/menuboard/internal/backend"
	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/models"
)

type ItemAddCmd struct {
	Category    string `arg:"" help:"Category ID or name."`
	Name        string `arg:"" help:"Item name."`
	Price       string `short:"p" help:"Price, e.g. 4.50." default:"0"`
	Ingredients string `short:"i" help:"Ingredients."`
	Image       string `help:"Image URL."`
	OutOfStock  bool   `help:"Mark the item out of stock."`
}

func (c *ItemAddCmd) Run(ctx *cli.Context) error {
	cat, err := cli.FindCategory(ctx.Ctx, ctx.Backend(), c.Category)
	if err != nil {
		return err
	}
	price, err := parsePrice(c.Price)
	if err != nil {
		return err
	}
	item, err := ctx.Backend().CreateMenuItem(ctx.Ctx, cat.ID, backend.MenuInput{
		Name:        c.Name,
		Ingredients: c.Ingredients,
		Price:       price,
		Image:       c.Image,
		OutOfStock:  c.OutOfStock,
	})
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	ctx.Invalidate(cat.ID)
	fmt.Fprintf(ctx.Out, "✓ Added %s to %s (ID: %s)\n", item.Name, cat.Name, item.ID)
	return nil
}

type ItemEditCmd struct {
	Category    string  `arg:"" help:"Category ID or name."`
	Item        string  `arg:"" help:"Menu item ID or name."`
	Name        *string `help:"New name."`
	Price       *string `short:"p" help:"New price."`
	Ingredients *string `short:"i" help:"New ingredients."`
	Image       *string `help:"New image URL."`
	OutOfStock  *bool   `help:"Set out-of-stock status."`
}

func (c *ItemEditCmd) Run(ctx *cli.Context) error {
	cat, item, err := findItem(ctx, c.Category, c.Item)
	if err != nil {
		return err
	}

	in := backend.InputFrom(item)
	if c.Name != nil {
		in.Name = *c.Name
	}
	if c.Price != nil {
		if in.Price, err = parsePrice(*c.Price); err != nil {
			return err
		}
	}
	if c.Ingredients != nil {
		in.Ingredients = *c.Ingredients
	}
	if c.Image != nil {
		in.Image = *c.Image
	}
	if c.OutOfStock != nil {
		in.OutOfStock = *c.OutOfStock
	}

	updated, err := ctx.Backend().UpdateMenuItem(ctx.Ctx, item.ID, in)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	ctx.Invalidate(cat.ID)
	fmt.Fprintf(ctx.Out, "✓ Updated %s\n", updated.Name)
	return nil
}

type ItemDeleteCmd struct {
	Category string `arg:"" help:"Category ID or name."`
	Item     string `arg:"" help:"Menu item ID or name."`
}

func (c *ItemDeleteCmd) Run(ctx *cli.Context) error {
	cat, item, err := findItem(ctx, c.Category, c.Item)
	if err != nil {
		return err
	}
	if err := ctx.Backend().DeleteMenuItem(ctx.Ctx, item.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	ctx.Invalidate(cat.ID)
	fmt.Fprintf(ctx.Out, "✓ Deleted %s\n", item.Name)
	return nil
}

// OutOfStockCmd lists every out-of-stock item across categories.
type OutOfStockCmd struct{}

func (c *OutOfStockCmd) Run(ctx *cli.Context) error {
	items, err := ctx.Backend().ListOutOfStock(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(ctx.Out, "Everything is in stock.")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(ctx.Out, "%s\n", cli.FormatItem(it))
	}
	return nil
}

func findItem(ctx *cli.Context, categoryRef, itemRef string) (models.Category, models.MenuItem, error) {
	cat, err := cli.FindCategory(ctx.Ctx, ctx.Backend(), categoryRef)
	if err != nil {
		return models.Category{}, models.MenuItem{}, err
	}
	items, err := ctx.Backend().ListMenuItems(ctx.Ctx, cat.ID)
	if err != nil {
		return cat, models.MenuItem{}, err
	}
	item, err := cli.FindMenuItem(items, itemRef)
	return cat, item, err
}

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Invalid("price", "is not a number")
	}
	return price, nil
}
