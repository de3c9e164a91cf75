package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Yizhe0407/dormcheck/internal/session"
	"github.com/Yizhe0407/dormcheck/pkg/client"
	"github.com/Yizhe0407/dormcheck/pkg/domain"
)

type loginField int

const (
	fieldUsername loginField = iota
	fieldPassword
	numLoginFields
)

// loginResultMsg carries the outcome of a login attempt.
type loginResultMsg struct {
	user *domain.Admin
	err  error
}

type loginModel struct {
	store      *session.Store
	username   string
	password   string
	focus      loginField
	submitting bool
	errMsg     string
	width      int
	height     int
}

func newLoginModel(store *session.Store) loginModel {
	return loginModel{store: store}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.password = ""
			m.focus = fieldPassword
			return m, nil
		}
		// Success: the app switches back to the board; drop the transient
		// credentials now.
		m.username = ""
		m.password = ""
		m.errMsg = ""
		m.focus = fieldUsername
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m loginModel) handleKey(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.focus == fieldPassword {
			return m.submit()
		}
		m.focus = fieldPassword
	case "tab", "down":
		m.focus = (m.focus + 1) % numLoginFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
	case "backspace":
		if m.focus == fieldUsername {
			m.username = editRune(m.username, "backspace")
		} else {
			m.password = editRune(m.password, "backspace")
		}
	default:
		key := msg.String()
		if m.focus == fieldUsername {
			m.username = editRune(m.username, key)
		} else {
			m.password = editRune(m.password, key)
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	username := strings.TrimSpace(m.username)
	password := strings.TrimSpace(m.password)
	if username == "" || password == "" {
		m.errMsg = "username and password are required"
		return m, nil
	}

	m.submitting = true
	m.errMsg = ""
	store := m.store
	return m, func() tea.Msg {
		user, err := store.Login(context.Background(), client.Credentials{
			Username: username,
			Password: password,
		})
		return loginResultMsg{user: user, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	b.WriteString(" " + dimStyle.Render("administrator sign in") + "\n\n")

	masked := strings.Repeat("•", len([]rune(m.password)))

	rows := []struct {
		field loginField
		label string
		value string
	}{
		{fieldUsername, "username", m.username},
		{fieldPassword, "password", masked},
	}

	for _, row := range rows {
		cursor := " "
		labelStyle := metaStyle
		value := row.value
		if row.field == m.focus {
			cursor = accentStyle.Render(">")
			labelStyle = selectedStyle
			value += accentStyle.Render("█")
		}
		b.WriteString(" " + cursor + " " + labelStyle.Render(padLabel(row.label)) + " " + value + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("signing in..."))
	case m.errMsg != "":
		b.WriteString(" " + errorStyle.Render(m.errMsg))
	}

	return b.String()
}

func (m loginModel) helpKeys() string {
	return helpEntry("tab", "next") + "  " + helpEntry("enter", "sign in") + "  " + helpEntry("esc", "cancel")
}
