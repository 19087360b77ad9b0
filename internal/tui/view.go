package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateCategories:
		content = m.categoryList.View()
	case StateMenu:
		content = m.menuList.View()
	case StateRating:
		content = m.form.View()
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(constants.AppName),
		m.statusLine(),
		content,
		m.help.View(m),
	))
}

// statusLine shows, in priority order, a loading marker, the surfaced error
// and the session's transient notice.
func (m Model) statusLine() string {
	var parts []string
	if m.loading {
		parts = append(parts, warningStyle.Render("Loading..."))
	}
	if m.err != nil {
		parts = append(parts, dangerStyle.Render(errors.Format(m.err)))
	}
	if n, ok := m.ctrl.Notice(); ok {
		parts = append(parts, noticeStyle.Render(n.Message))
	}
	return strings.Join(parts, "  ")
}

func starBar(stars int) string {
	return strings.Repeat("★", stars) + strings.Repeat("☆", constants.MaxStars-stars)
}
