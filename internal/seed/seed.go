// Package seed loads a YAML catalog description into a storage.Provider.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/storage"
)

type File struct {
	Categories []Category `yaml:"categories"`
}

type Category struct {
	Name  string `yaml:"name"`
	Menus []Menu `yaml:"menus"`
}

type Menu struct {
	Name        string `yaml:"name"`
	Ingredients string `yaml:"ingredients"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image"`
	OutOfStock  bool   `yaml:"out_of_stock"`
	Ratings     []int  `yaml:"ratings"`
}

// Result counts what Apply created.
type Result struct {
	Categories int
	Menus      int
	Ratings    int
}

func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return f, nil
}

func ParseFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply creates the categories and menus in f. Categories and menus that
// already exist by name are reused, so running the same file twice adds
// nothing. Ratings are only added to menus created by this run.
func Apply(ctx context.Context, p storage.Provider, f File) (Result, error) {
	var res Result

	existing, err := p.ListCategories(ctx)
	if err != nil {
		return res, err
	}
	byName := make(map[string]models.Category, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c
	}

	for _, sc := range f.Categories {
		cat, ok := byName[strings.ToLower(sc.Name)]
		if !ok {
			cat = models.Category{Name: strings.TrimSpace(sc.Name)}
			if err := cat.Validate(); err != nil {
				return res, fmt.Errorf("category %q: %w", sc.Name, err)
			}
			if cat, err = p.CreateCategory(ctx, cat); err != nil {
				return res, err
			}
			byName[strings.ToLower(cat.Name)] = cat
			res.Categories++
		}

		menus, err := p.ListMenusByCategory(ctx, cat.ID)
		if err != nil {
			return res, err
		}
		have := make(map[string]bool, len(menus))
		for _, m := range menus {
			have[strings.ToLower(m.Name)] = true
		}

		for _, sm := range sc.Menus {
			if have[strings.ToLower(sm.Name)] {
				continue
			}
			item, err := sm.item(cat.ID)
			if err != nil {
				return res, fmt.Errorf("menu %q in %q: %w", sm.Name, sc.Name, err)
			}
			created, err := p.CreateMenu(ctx, item)
			if err != nil {
				return res, err
			}
			have[strings.ToLower(sm.Name)] = true
			res.Menus++

			for _, stars := range sm.Ratings {
				r := models.Rating{MenuItemID: created.ID, Stars: stars}
				if err := r.Validate(); err != nil {
					return res, fmt.Errorf("rating for %q: %w", sm.Name, err)
				}
				if _, err := p.CreateRating(ctx, r); err != nil {
					return res, err
				}
				res.Ratings++
			}
		}
	}

	logger.Info("Seed applied", "categories", res.Categories, "menus", res.Menus, "ratings", res.Ratings)
	return res, nil
}

func (m Menu) item(categoryID string) (models.MenuItem, error) {
	price := decimal.Zero
	if m.Price != "" {
		var err error
		if price, err = decimal.NewFromString(m.Price); err != nil {
			return models.MenuItem{}, fmt.Errorf("price %q: %w", m.Price, err)
		}
	}
	item := models.MenuItem{
		CategoryID:  categoryID,
		Name:        strings.TrimSpace(m.Name),
		Ingredients: m.Ingredients,
		Price:       price,
		Image:       m.Image,
		OutOfStock:  m.OutOfStock,
	}
	return item, item.Validate()
}
