package seed

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/storage/sqlite"
)

const sample = `
categories:
  - name: Drinks
    menus:
      - name: Latte
        ingredients: espresso, milk
        price: "4.50"
        ratings: [5, 5, 4]
      - name: Lemonade
        price: "3"
        out_of_stock: true
  - name: Desserts
    menus:
      - name: Cheesecake
        price: "6.25"
`

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s := sqlite.NewStore(filepath.Join(t.TempDir(), "seed.db"))
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApply(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Apply(ctx, s, f)
	if err != nil {
		t.Fatal(err)
	}
	if res != (Result{Categories: 2, Menus: 3, Ratings: 3}) {
		t.Errorf("Apply = %+v", res)
	}

	oos, err := s.ListOutOfStock(ctx)
	if err != nil || len(oos) != 1 || oos[0].Name != "Lemonade" {
		t.Errorf("out of stock = %+v, %v", oos, err)
	}

	// Re-applying the same file is a no-op.
	res, err = Apply(ctx, s, f)
	if err != nil {
		t.Fatal(err)
	}
	if res != (Result{}) {
		t.Errorf("second Apply = %+v, want nothing created", res)
	}
}

func TestApplyRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad price", "categories:\n  - name: A\n    menus:\n      - name: x\n        price: cheap\n"},
		{"negative price", "categories:\n  - name: A\n    menus:\n      - name: x\n        price: \"-2\"\n"},
		{"bad stars", "categories:\n  - name: A\n    menus:\n      - name: x\n        ratings: [9]\n"},
		{"blank category", "categories:\n  - name: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Apply(context.Background(), setupStore(t), f); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBlankNameIsValidationFailure(t *testing.T) {
	f, _ := Parse(strings.NewReader("categories:\n  - name: A\n    menus:\n      - name: \" \"\n"))
	_, err := Apply(context.Background(), setupStore(t), f)
	if !stderrors.Is(err, errors.ErrValidation) {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestParseUnknownField(t *testing.T) {
	if _, err := Parse(strings.NewReader("categories:\n  - name: A\n    colour: red\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}
