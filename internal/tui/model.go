// Package tui is the interactive storefront: pick a category, browse its
// menu with ratings and badges, and rate items within the daily quota.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/session"
)

type SessionState int

const (
	StateCategories SessionState = iota
	StateMenu
	StateRating
)

// CategorySource lists the categories offered on the first screen.
type CategorySource interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type RatingFormModel struct {
	Stars int
}

type Model struct {
	ctx        context.Context
	ctrl       *session.Controller
	categories CategorySource

	state         SessionState
	keys          KeyMap
	help          help.Model
	categoryList  list.Model
	menuList      list.Model
	form          *huh.Form
	ratingForm    *RatingFormModel
	ratingTarget  *models.MenuItem
	category      models.Category
	loading       bool
	err           error
	noticeSeq     int
	quitting      bool
	width, height int
}

func NewModel(ctx context.Context, ctrl *session.Controller, categories CategorySource) Model {
	cl := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	cl.Title = "Categories"
	cl.SetShowHelp(false)

	ml := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	ml.SetShowHelp(false)

	return Model{
		ctx:          ctx,
		ctrl:         ctrl,
		categories:   categories,
		state:        StateCategories,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		categoryList: cl,
		menuList:     ml,
		loading:      true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadCategories()
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateCategories:
		keys = append(keys, m.keys.Enter)
	case StateMenu:
		keys = append(keys, m.keys.Rate, m.keys.Refresh, m.keys.Back)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Quit, m.keys.Help},
		{m.keys.Enter, m.keys.Back},
		{m.keys.Rate, m.keys.Refresh},
	}
}
