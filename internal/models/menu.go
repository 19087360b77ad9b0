package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
)

type Badge string

const (
	BadgeNone     Badge = ""
	BadgeTopRated Badge = "Top Rated"
	BadgePopular  Badge = "Popular"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MenuItem struct {
	ID            string          `json:"id"`
	CategoryID    string          `json:"category_id"`
	Name          string          `json:"name"`
	Ingredients   string          `json:"ingredients"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image,omitempty"`
	OutOfStock    bool            `json:"out_of_stock"`
	Ratings       []Rating        `json:"ratings"`
	AverageRating float64         `json:"average_rating"`
	Badge         Badge           `json:"badge,omitempty"`
}

type Rating struct {
	ID         string    `json:"id"`
	MenuItemID string    `json:"menu_id"`
	Stars      int       `json:"stars"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.Invalid("name", "can't be blank")
	}
	return nil
}

func (m *MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.Invalid("name", "can't be blank")
	}
	if m.Price.IsNegative() {
		return errors.Invalid("price", "must be greater than or equal to 0")
	}
	return nil
}

// ValidStars reports whether stars is within the accepted rating range.
func ValidStars(stars int) bool {
	return stars >= constants.MinStars && stars <= constants.MaxStars
}

func (r *Rating) Validate() error {
	if !ValidStars(r.Stars) {
		return errors.Invalid("stars", "is not included in the list")
	}
	return nil
}
