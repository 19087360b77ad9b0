package storefront

import (
	"fmt"

	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/models"
)

// RateCmd submits a star rating, subject to the daily quota.
type RateCmd struct {
	Category string `arg:"" help:"Category ID or name."`
	Item     string `arg:"" help:"Menu item ID or name."`
	Stars    int    `arg:"" help:"Stars, 1 to 5."`
}

func (c *RateCmd) Run(ctx *cli.Context) error {
	if !models.ValidStars(c.Stars) {
		return errors.Invalid("stars", "must be between 1 and 5")
	}
	cat, err := cli.FindCategory(ctx.Ctx, ctx.Backend(), c.Category)
	if err != nil {
		return err
	}
	ctrl, err := ctx.Session()
	if err != nil {
		return err
	}
	items, _, err := ctrl.GetListing(ctx.Ctx, cat.ID)
	if err != nil {
		return err
	}
	item, err := cli.FindMenuItem(items, c.Item)
	if err != nil {
		return err
	}

	res, err := ctrl.SubmitRating(ctx.Ctx, cat.ID, item.ID, c.Stars)
	if err != nil {
		return err
	}
	if !res.Reason.Allowed() {
		fmt.Fprintf(ctx.Out, "ℹ %s\n", res.Reason.Message())
		return nil
	}

	fmt.Fprintf(ctx.Out, "✓ Rated %s %d/%d\n", item.Name, c.Stars, constants.MaxStars)
	if res.RefreshErr != nil {
		fmt.Fprintf(ctx.Out, "⚠️  Could not refresh menu: %v\n", res.RefreshErr)
		return nil
	}
	if updated, err := cli.FindMenuItem(res.Items, item.ID); err == nil {
		fmt.Fprintf(ctx.Out, "  %s\n", cli.FormatItem(updated))
	}
	return nil
}

// QuotaCmd reports today's rating usage.
type QuotaCmd struct{}

func (c *QuotaCmd) Run(ctx *cli.Context) error {
	q, err := ctx.Quota()
	if err != nil {
		return err
	}
	usage, err := q.Usage()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s: %d of %d ratings left\n", usage.Day, usage.Remaining, constants.QuotaDailyLimit)
	for _, r := range usage.Rated {
		fmt.Fprintf(ctx.Out, "  item %s at %s\n", r.MenuItemID, r.Time().Format("15:04"))
	}
	return nil
}
