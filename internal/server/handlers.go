package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/rating"
	"github.com/julianstephens/menuboard/internal/storage"
)

type categoryParams struct {
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
}

// menuParams mirrors the permitted menu attributes. Nil fields are left
// unchanged on update.
type menuParams struct {
	Menu struct {
		Name        *string          `json:"name"`
		Ingredients *string          `json:"ingredients"`
		Price       *decimal.Decimal `json:"price"`
		Image       *string          `json:"image"`
		OutOfStock  *bool            `json:"out_of_stock"`
	} `json:"menu"`
}

func (p menuParams) applyTo(m *models.MenuItem) {
	if p.Menu.Name != nil {
		m.Name = *p.Menu.Name
	}
	if p.Menu.Ingredients != nil {
		m.Ingredients = *p.Menu.Ingredients
	}
	if p.Menu.Price != nil {
		m.Price = *p.Menu.Price
	}
	if p.Menu.Image != nil {
		m.Image = *p.Menu.Image
	}
	if p.Menu.OutOfStock != nil {
		m.OutOfStock = *p.Menu.OutOfStock
	}
}

type ratingParams struct {
	Rating struct {
		Stars int `json:"stars"`
	} `json:"rating"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var p categoryParams
	if !s.decode(w, r, &p) {
		return
	}
	c := models.Category{Name: strings.TrimSpace(p.Category.Name)}
	if err := c.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p categoryParams
	if !s.decode(w, r, &p) {
		return
	}
	c.Name = strings.TrimSpace(p.Category.Name)
	if err := c.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateCategory(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMenus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetCategory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.store.ListMenusByCategory(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withAggregates(items))
}

func (s *Server) createMenu(w http.ResponseWriter, r *http.Request) {
	cat, err := s.store.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p menuParams
	if !s.decode(w, r, &p) {
		return
	}
	m := models.MenuItem{CategoryID: cat.ID}
	p.applyTo(&m)
	if err := m.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.CreateMenu(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rating.Apply(&created)
	writeJSON(w, http.StatusCreated, normalize(created))
}

func (s *Server) listOutOfStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListOutOfStock(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withAggregates(items))
}

func (s *Server) showMenu(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMenu(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rating.Apply(&m)
	writeJSON(w, http.StatusOK, normalize(m))
}

func (s *Server) updateMenu(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMenu(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p menuParams
	if !s.decode(w, r, &p) {
		return
	}
	p.applyTo(&m)
	if err := m.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateMenu(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rating.Apply(&updated)
	writeJSON(w, http.StatusOK, normalize(updated))
}

func (s *Server) deleteMenu(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMenu(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) averageRating(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.menuRatings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum := rating.Aggregate(ratings)
	writeJSON(w, http.StatusOK, map[string]any{
		"average_rating": sum.Average,
		"count":          sum.Count,
		"badge":          sum.Badge,
	})
}

func (s *Server) listRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.menuRatings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	writeJSON(w, http.StatusOK, ratings)
}

func (s *Server) createRating(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMenu(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p ratingParams
	if !s.decode(w, r, &p) {
		return
	}
	rt := models.Rating{MenuItemID: m.ID, Stars: p.Rating.Stars, CreatedAt: s.now().UTC()}
	if err := rt.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.store.CreateRating(r.Context(), rt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observeRating(created.Stars)
	s.log.Info("Rating created", "menu_id", m.ID, "stars", created.Stars, "request_id", requestID(r.Context()))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) menuRatings(r *http.Request) ([]models.Rating, error) {
	id := r.PathValue("id")
	if _, err := s.store.GetMenu(r.Context(), id); err != nil {
		return nil, err
	}
	return s.store.ListRatings(r.Context(), id)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

// writeError maps validation failures to 422 and missing records to 404.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case stderrors.Is(err, errors.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string][]string{"errors": {err.Error()}})
	case stderrors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		s.log.Error("Request failed", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withAggregates(items []models.MenuItem) []models.MenuItem {
	out := make([]models.MenuItem, len(items))
	for i := range items {
		rating.Apply(&items[i])
		out[i] = normalize(items[i])
	}
	return out
}

func normalize(m models.MenuItem) models.MenuItem {
	if m.Ratings == nil {
		m.Ratings = []models.Rating{}
	}
	return m
}
