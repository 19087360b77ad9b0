package admin

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/config"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/server"
	"github.com/julianstephens/menuboard/internal/storage/sqlite"
)

func setupContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "server.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ts := httptest.NewServer(server.New(store).Handler())
	t.Cleanup(ts.Close)

	var out bytes.Buffer
	ctx := cli.NewContext(context.Background(), config.Config{
		APIURL:      ts.URL,
		CacheTTL:    10 * time.Minute,
		QuotaSweep:  -1,
		HTTPTimeout: 5 * time.Second,
	})
	ctx.Out = &out
	t.Cleanup(func() { ctx.Close() })
	return ctx, &out
}

func TestCategoryLifecycle(t *testing.T) {
	ctx, out := setupContext(t)

	if err := (&CategoryAddCmd{Name: "Drinks"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&CategoryRenameCmd{Category: "drinks", Name: "Beverages"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Renamed Drinks to Beverages") {
		t.Errorf("output = %q", out.String())
	}

	if err := (&CategoryAddCmd{Name: "  "}).Run(ctx); !stderrors.Is(err, errors.ErrValidation) {
		t.Errorf("blank name err = %v, want validation failure", err)
	}

	if err := (&CategoryDeleteCmd{Category: "Beverages"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	cats, err := ctx.Backend().ListCategories(ctx.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 0 {
		t.Errorf("categories after delete = %+v", cats)
	}
}

func TestItemLifecycleInvalidatesSession(t *testing.T) {
	ctx, out := setupContext(t)
	if err := (&CategoryAddCmd{Name: "Cakes"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&ItemAddCmd{Category: "Cakes", Name: "Cheesecake", Price: "6.5", Ingredients: "cheese"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	ctrl, err := ctx.Session()
	if err != nil {
		t.Fatal(err)
	}
	cat, err := cli.FindCategory(ctx.Ctx, ctx.Backend(), "Cakes")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ctrl.GetListing(ctx.Ctx, cat.ID); err != nil {
		t.Fatal(err)
	}

	stock := true
	if err := (&ItemEditCmd{Category: "Cakes", Item: "cheesecake", OutOfStock: &stock}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	items, fromCache, err := ctrl.GetListing(ctx.Ctx, cat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fromCache {
		t.Error("listing served from cache after edit")
	}
	if len(items) != 1 || !items[0].OutOfStock || items[0].Ingredients != "cheese" {
		t.Errorf("items after edit = %+v", items)
	}

	out.Reset()
	if err := (&OutOfStockCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Cheesecake  $6.50") {
		t.Errorf("out-of-stock output = %q", out.String())
	}

	if err := (&ItemDeleteCmd{Category: "Cakes", Item: "Cheesecake"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := (&OutOfStockCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Everything is in stock.") {
		t.Errorf("output after delete = %q", out.String())
	}
}

func TestItemPriceValidation(t *testing.T) {
	ctx, _ := setupContext(t)
	if err := (&CategoryAddCmd{Name: "Cakes"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	for _, price := range []string{"abc", "-2"} {
		err := (&ItemAddCmd{Category: "Cakes", Name: "Pie", Price: price}).Run(ctx)
		if !stderrors.Is(err, errors.ErrValidation) {
			t.Errorf("price %q err = %v, want validation failure", price, err)
		}
	}
}
