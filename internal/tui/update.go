package tui

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/session"
)

type categoriesLoadedMsg struct {
	categories []models.Category
	err        error
}

type listingLoadedMsg struct {
	view session.View
	err  error
}

type ratingSubmittedMsg struct {
	categoryID string
	result     session.SubmitResult
	err        error
}

type noticeExpiredMsg struct {
	seq int
}

func (m Model) loadCategories() tea.Cmd {
	return func() tea.Msg {
		cats, err := m.categories.ListCategories(m.ctx)
		return categoriesLoadedMsg{categories: cats, err: err}
	}
}

func (m Model) selectCategory(categoryID string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.ctrl.SelectCategory(m.ctx, categoryID)
		return listingLoadedMsg{view: view, err: err}
	}
}

func (m Model) submitRating(categoryID, menuID string, stars int) tea.Cmd {
	return func() tea.Msg {
		res, err := m.ctrl.SubmitRating(m.ctx, categoryID, menuID, stars)
		return ratingSubmittedMsg{categoryID: categoryID, result: res, err: err}
	}
}

func (m *Model) expireNotice() tea.Cmd {
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(m.ctrl.NoticeDuration(), func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, done := msg.(ratingSubmittedMsg); m.state == StateRating && !done {
		return m.updateRating(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := docStyle.GetFrameSize()
		m.categoryList.SetSize(msg.Width-h, msg.Height-v-3)
		m.menuList.SetSize(msg.Width-h, msg.Height-v-3)
		m.help.Width = msg.Width
		return m, nil

	case categoriesLoadedMsg:
		m.loading = false
		m.err = msg.err
		items := make([]list.Item, len(msg.categories))
		for i, c := range msg.categories {
			items[i] = categoryItem{category: c}
		}
		return m, m.categoryList.SetItems(items)

	case listingLoadedMsg:
		if stderrors.Is(msg.err, session.ErrSelectionChanged) {
			return m, nil
		}
		m.loading = false
		m.err = msg.view.Err
		return m, m.setMenuItems(msg.view.Items)

	case ratingSubmittedMsg:
		var cmds []tea.Cmd
		// The listing and errors belong to the rated category only.
		current := m.state != StateCategories && m.category.ID == msg.categoryID
		switch {
		case !current:
		case msg.err != nil:
			m.err = msg.err
		case msg.result.RefreshErr != nil:
			m.err = msg.result.RefreshErr
		case msg.result.Items != nil:
			m.err = nil
			cmds = append(cmds, m.setMenuItems(msg.result.Items))
		}
		if _, ok := m.ctrl.Notice(); ok {
			cmds = append(cmds, m.expireNotice())
		}
		return m, tea.Batch(cmds...)

	case noticeExpiredMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveList(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return m.updateActiveList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.state {
	case StateCategories:
		if key.Matches(msg, m.keys.Enter) {
			if i, ok := m.categoryList.SelectedItem().(categoryItem); ok {
				m.category = i.category
				m.state = StateMenu
				m.loading = true
				m.err = nil
				m.menuList.Title = i.category.Name
				return m, m.selectCategory(i.category.ID)
			}
		}
	case StateMenu:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.state = StateCategories
			m.err = nil
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.ctrl.Invalidate(m.category.ID)
			m.loading = true
			return m, m.selectCategory(m.category.ID)
		case key.Matches(msg, m.keys.Rate):
			if i, ok := m.menuList.SelectedItem().(menuItem); ok {
				return m, m.openRatingForm(i.item)
			}
		}
	}

	return m.updateActiveList(msg)
}

func (m *Model) openRatingForm(item models.MenuItem) tea.Cmd {
	m.ratingTarget = &item
	m.ratingForm = &RatingFormModel{Stars: constants.MaxStars}

	opts := make([]huh.Option[int], 0, constants.MaxStars)
	for stars := constants.MaxStars; stars >= constants.MinStars; stars-- {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%d)", starBar(stars), stars), stars))
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Rate " + item.Name).
				Options(opts...).
				Value(&m.ratingForm.Stars),
		),
	)
	m.state = StateRating
	return m.form.Init()
}

func (m Model) updateRating(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateMenu
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateMenu
		return m, m.submitRating(m.category.ID, m.ratingTarget.ID, m.ratingForm.Stars)
	case huh.StateAborted:
		m.state = StateMenu
		return m, nil
	}
	return m, cmd
}

func (m *Model) setMenuItems(items []models.MenuItem) tea.Cmd {
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = menuItem{item: it}
	}
	return m.menuList.SetItems(listItems)
}

func (m *Model) activeList() *list.Model {
	if m.state == StateMenu {
		return &m.menuList
	}
	return &m.categoryList
}

func (m Model) updateActiveList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.state == StateMenu {
		m.menuList, cmd = m.menuList.Update(msg)
	} else {
		m.categoryList, cmd = m.categoryList.Update(msg)
	}
	return m, cmd
}
