package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Yizhe0407/dormcheck/internal/session"
	"github.com/Yizhe0407/dormcheck/pkg/client"
	"github.com/Yizhe0407/dormcheck/pkg/domain"
)

type view int

const (
	viewBoard view = iota
	viewReserve
	viewLogin
)

// sessionMsg announces a session state change (startup resolution, login,
// logout) to the app and its sub-models.
type sessionMsg struct {
	state session.State
	user  *domain.Admin
}

// App is the root Bubbletea model.
type App struct {
	client  *client.Client
	store   *session.Store
	view    view
	board   boardModel
	reserve reserveModel
	login   loginModel
	state   session.State
	user    *domain.Admin
	width   int
	height  int
	frame   int // logo shimmer animation frame
	version string
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, store *session.Store, version string) App {
	return App{
		client:  c,
		store:   store,
		board:   newBoardModel(c),
		reserve: newReserveModel(c),
		login:   newLoginModel(store),
		state:   session.StateLoading,
		version: version,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.initSession(), a.board.Init(), shimmerTickCmd())
}

// initSession resolves the persisted token once at startup.
func (a App) initSession() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		state := store.Init(context.Background())
		return sessionMsg{state: state, user: store.User()}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.board, _ = a.board.Update(bodyMsg)
		a.reserve, _ = a.reserve.Update(bodyMsg)
		a.login, _ = a.login.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionMsg:
		a.state = msg.state
		a.user = msg.user
		a.board, _ = a.board.Update(msg)
		if a.state == session.StateAuthenticated && a.view == viewLogin {
			a.view = viewBoard
		}
		return a, nil

	case loginResultMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err == nil {
			sm := sessionMsg{state: session.StateAuthenticated, user: msg.user}
			a.state = sm.state
			a.user = sm.user
			a.board, _ = a.board.Update(sm)
			a.view = viewBoard
		}
		return a, cmd

	case reservationAddedMsg:
		var cmd tea.Cmd
		a.reserve, cmd = a.reserve.Update(msg)
		if msg.err == nil && !a.board.fetching {
			a.board.fetching = true
			return a, tea.Batch(cmd, a.board.load())
		}
		return a, cmd

	case reservationsMsg, verdictResultMsg, copyResultMsg, pollTickMsg:
		var cmd tea.Cmd
		a.board, cmd = a.board.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The login view owns the keyboard while it is open: every printable
	// rune belongs to the form.
	if a.view == viewLogin {
		switch msg.String() {
		case "esc":
			a.view = viewBoard
			return a, nil
		case "ctrl+c":
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "1":
		if a.view != viewBoard {
			a.view = viewBoard
		}
		return a, nil
	case "2":
		if a.view != viewReserve {
			a.view = viewReserve
		}
		return a, nil
	case "L":
		if a.state == session.StateAuthenticated {
			return a, a.logout()
		}
		a.view = viewLogin
		return a, nil
	case "esc":
		if a.view == viewReserve {
			a.view = viewBoard
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.view {
	case viewBoard:
		a.board, cmd = a.board.Update(msg)
	case viewReserve:
		a.reserve, cmd = a.reserve.Update(msg)
	}
	return a, cmd
}

// logout clears the session best-effort and reports the new state.
func (a App) logout() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		store.Logout(context.Background())
		return sessionMsg{state: session.StateUnauthenticated}
	}
}

func (a App) View() string {
	// Header: centered shimmer logo + session line
	logo := renderShimmerLogo(a.frame)
	header := centerLine(logo, a.width)

	var who string
	switch {
	case a.state == session.StateLoading || a.state == session.StateUninitialized:
		who = dimStyle.Render("checking session...")
	case a.user != nil:
		who = accentStyle.Render(a.user.Username) + metaStyle.Render(" · admin")
	default:
		who = metaStyle.Render("not signed in")
	}
	header += "\n" + centerLine(who, a.width)

	// Tab bar
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Board", viewBoard},
		{"2", "Reserve", viewReserve},
	}

	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	// Body + help
	var body, help string
	sessionKey := helpEntry("L", "sign in")
	if a.state == session.StateAuthenticated {
		sessionKey = helpEntry("L", "sign out")
	}
	switch a.view {
	case viewBoard:
		body = a.board.View()
		help = " " + helpEntry("1/2", "tabs") + "  " + a.board.helpKeys() + "  " + sessionKey + "  " + helpEntry("q", "quit")
	case viewReserve:
		body = a.reserve.View()
		help = " " + helpEntry("1/2", "tabs") + "  " + a.reserve.helpKeys() + "  " + sessionKey + "  " + helpEntry("q", "quit")
	case viewLogin:
		body = a.login.View()
		help = " " + a.login.helpKeys()
	}
	if a.version != "" && a.view != viewLogin {
		help += "  " + metaStyle.Render(a.version)
	}

	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return header + "\n" + tabBar.String() + "\n" + body + "\n" + help
}

// centerLine pads a rendered line into the middle of the terminal width.
func centerLine(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
