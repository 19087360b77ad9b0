package tui

import (
	"fmt"

	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/rating"
)

type categoryItem struct {
	category models.Category
}

func (i categoryItem) Title() string       { return i.category.Name }
func (i categoryItem) Description() string { return "" }
func (i categoryItem) FilterValue() string { return i.category.Name }

type menuItem struct {
	item models.MenuItem
}

func (i menuItem) Title() string {
	title := i.item.Name
	switch i.item.Badge {
	case models.BadgeTopRated:
		title += " " + topRatedStyle.Render("★ "+string(i.item.Badge))
	case models.BadgePopular:
		title += " " + popularStyle.Render(string(i.item.Badge))
	}
	if i.item.OutOfStock {
		title += " " + dangerStyle.Render("[OUT OF STOCK]")
	}
	return title
}

// Description shows price, average and rating count, e.g. "$4.50 · avg 4.67 (3 ratings)".
func (i menuItem) Description() string {
	s := rating.Aggregate(i.item.Ratings)
	noun := "ratings"
	if s.Count == 1 {
		noun = "rating"
	}
	return fmt.Sprintf("$%s · avg %s (%d %s)", i.item.Price.StringFixed(2), s.DisplayAverage(), s.Count, noun)
}

func (i menuItem) FilterValue() string { return i.item.Name }
