package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/server"
	"github.com/julianstephens/menuboard/internal/storage/sqlite"
)

func setupBackend(t *testing.T) *Client {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "server.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ts := httptest.NewServer(server.New(store).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestClientAgainstServer(t *testing.T) {
	c := setupBackend(t)
	ctx := context.Background()

	cat, err := c.CreateCategory(ctx, "Drinks")
	if err != nil {
		t.Fatal(err)
	}
	latte, err := c.CreateMenuItem(ctx, cat.ID, MenuInput{Name: "Latte", Price: decimal.RequireFromString("4.50")})
	if err != nil {
		t.Fatal(err)
	}
	for _, stars := range []int{5, 4} {
		if _, err := c.CreateRating(ctx, latte.ID, stars); err != nil {
			t.Fatal(err)
		}
	}

	items, err := c.ListMenuItems(ctx, cat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || len(items[0].Ratings) != 2 {
		t.Fatalf("ListMenuItems = %+v", items)
	}
	if items[0].Badge != models.BadgePopular || items[0].AverageRating != 4.5 {
		t.Errorf("aggregate = %.2f %q, want 4.50 Popular", items[0].AverageRating, items[0].Badge)
	}

	avg, err := c.AverageRating(ctx, latte.ID)
	if err != nil || avg != 4.5 {
		t.Errorf("AverageRating = %v, %v", avg, err)
	}

	in := InputFrom(items[0])
	in.OutOfStock = true
	if _, err := c.UpdateMenuItem(ctx, latte.ID, in); err != nil {
		t.Fatal(err)
	}
	oos, err := c.ListOutOfStock(ctx)
	if err != nil || len(oos) != 1 {
		t.Errorf("ListOutOfStock = %+v, %v", oos, err)
	}

	if err := c.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetMenuItem(ctx, latte.ID); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("GetMenuItem after delete = %v, want ErrNotFound", err)
	}
}

func TestClientValidationFailure(t *testing.T) {
	c := setupBackend(t)
	_, err := c.CreateCategory(context.Background(), "")
	if !stderrors.Is(err, errors.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
	if err.Error() != "Name can't be blank" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCreateRatingRejectsStarsLocally(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer ts.Close()

	_, err := New(ts.URL).CreateRating(context.Background(), "1", 0)
	if !stderrors.Is(err, errors.ErrValidation) {
		t.Errorf("err = %v, want validation failure", err)
	}
	if hits != 0 {
		t.Error("invalid rating reached the server")
	}
}

func TestReconcileCorrectsServedBadge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.MenuItem{{
			ID:            "1",
			Name:          "Cake",
			Ratings:       []models.Rating{{Stars: 5}, {Stars: 5}},
			AverageRating: 5,
			Badge:         models.BadgeTopRated,
		}})
	}))
	defer ts.Close()

	items, err := New(ts.URL).ListMenuItems(context.Background(), "7")
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Badge != models.BadgePopular {
		t.Errorf("badge = %q, want Popular (only two ratings)", items[0].Badge)
	}
	if items[0].CategoryID != "7" {
		t.Errorf("category id = %q, want 7", items[0].CategoryID)
	}
}

func TestNetworkFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()
			_, err := New(ts.URL).ListCategories(context.Background())
			if !stderrors.Is(err, errors.ErrNetwork) {
				t.Errorf("err = %v, want network failure", err)
			}
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()
		_, err := New(url, WithTimeout(time.Second)).ListCategories(context.Background())
		if !stderrors.Is(err, errors.ErrNetwork) {
			t.Errorf("err = %v, want network failure", err)
		}
	})

	t.Run("status error detail", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()
		_, err := New(ts.URL).ListCategories(context.Background())
		var se *StatusError
		if !stderrors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
			t.Errorf("err = %v, want StatusError 503", err)
		}
	})
}

func TestRequestIDSent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(constants.RequestIDHeader)
		_, _ = w.Write([]byte("[]"))
	}))
	defer ts.Close()

	if _, err := New(ts.URL).ListCategories(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("request id %q is not a uuid", got)
	}
}
