package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Yizhe0407/dormcheck/internal/session"
	"github.com/Yizhe0407/dormcheck/pkg/client"
	"github.com/Yizhe0407/dormcheck/pkg/domain"
)

// pollInterval is how often the board re-fetches the reservation list.
const pollInterval = time.Minute

type pollTickMsg time.Time

func pollTickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

// -- messages --

type reservationsMsg struct {
	list   []domain.Reservation
	filter client.Filter
	err    error
}

type verdictResultMsg struct {
	key     domain.RoomKey
	verdict domain.Status
	err     error
}

type copyResultMsg struct {
	label string
	err   error
}

// pendingVerdict tracks an optimistic edit until the backend confirms it.
// prev* carry the exact values to restore on failure.
type pendingVerdict struct {
	applied       domain.Status
	inspector     string
	prevStatus    domain.Status
	prevInspector string
}

// -- model --

type boardModel struct {
	client       *client.Client
	reservations []domain.Reservation
	cursor       int
	filter       client.Filter
	pending      map[domain.RoomKey]pendingVerdict
	fetching     bool
	err          string
	notice       string
	username     string
	authed       bool
	width        int
	height       int
}

func newBoardModel(c *client.Client) boardModel {
	return boardModel{client: c, pending: make(map[domain.RoomKey]pendingVerdict)}
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(m.load(), pollTickCmd())
}

func (m boardModel) load() tea.Cmd {
	c := m.client
	filter := m.filter
	return func() tea.Msg {
		list, err := c.Reservations(context.Background(), filter)
		return reservationsMsg{list: list, filter: filter, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (boardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionMsg:
		m.authed = msg.state == session.StateAuthenticated
		m.username = ""
		if msg.user != nil {
			m.username = msg.user.Username
		}

	case pollTickMsg:
		// One outstanding list fetch at most; a tick during a fetch is
		// skipped, never queued.
		if m.fetching {
			return m, pollTickCmd()
		}
		m.fetching = true
		return m, tea.Batch(m.load(), pollTickCmd())

	case reservationsMsg:
		if msg.filter != m.filter {
			// Response for a superseded filter; the current fetch will land.
			return m, nil
		}
		m.fetching = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.reservations = msg.list
		// Outstanding optimistic edits win over freshly fetched state until
		// the backend confirms or rejects them.
		for i := range m.reservations {
			if pv, ok := m.pending[m.reservations[i].Key()]; ok {
				m.reservations[i].Status = pv.applied
				m.reservations[i].Inspector = pv.inspector
			}
		}
		if m.cursor >= len(m.reservations) {
			m.cursor = 0
		}

	case verdictResultMsg:
		pv, ok := m.pending[msg.key]
		if !ok {
			return m, nil
		}
		delete(m.pending, msg.key)
		if msg.err != nil {
			// Roll back exactly this entry; the key may have left the list.
			for i := range m.reservations {
				if m.reservations[i].Key() == msg.key {
					m.reservations[i].Status = pv.prevStatus
					m.reservations[i].Inspector = pv.prevInspector
					break
				}
			}
			m.err = fmt.Sprintf("%s: %s", msg.key, msg.err)
			return m, nil
		}
		m.notice = fmt.Sprintf("%s marked %s", msg.key, msg.verdict)

	case copyResultMsg:
		if msg.err != nil {
			m.err = "copy failed: " + msg.err.Error()
		} else {
			m.notice = "copied " + msg.label
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m boardModel) handleKey(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	m.notice = ""

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.reservations)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "f":
		m.filter = nextFilter(m.filter)
		m.cursor = 0
		m.fetching = true
		return m, m.load()
	case "r":
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, m.load()
	case "y":
		return m.applyVerdict(domain.StatusQualified)
	case "x":
		return m.applyVerdict(domain.StatusUnqualified)
	case "c":
		if m.cursor < len(m.reservations) {
			res := m.reservations[m.cursor]
			text := summaryLine(res)
			label := res.Label()
			return m, func() tea.Msg {
				err := clipboard.WriteAll(text)
				return copyResultMsg{label: label, err: err}
			}
		}
	}
	return m, nil
}

// applyVerdict flips the selected entry optimistically and issues the backend
// call. Targeting is by room key: a refresh landing in between cannot
// redirect the rollback to another entry.
func (m boardModel) applyVerdict(verdict domain.Status) (boardModel, tea.Cmd) {
	if !m.authed || m.username == "" {
		m.notice = "sign in to record verdicts"
		return m, nil
	}
	if m.cursor >= len(m.reservations) {
		return m, nil
	}
	res := m.reservations[m.cursor]
	key := res.Key()
	if _, ok := m.pending[key]; ok {
		// A verdict for this room is already in flight.
		return m, nil
	}

	m.pending[key] = pendingVerdict{
		applied:       verdict,
		inspector:     m.username,
		prevStatus:    res.Status,
		prevInspector: res.Inspector,
	}
	m.reservations[m.cursor].Status = verdict
	m.reservations[m.cursor].Inspector = m.username

	c := m.client
	username := m.username
	return m, func() tea.Msg {
		var err error
		if verdict == domain.StatusQualified {
			err = c.Qualify(context.Background(), key, username)
		} else {
			err = c.Unqualify(context.Background(), key, username)
		}
		return verdictResultMsg{key: key, verdict: verdict, err: err}
	}
}

func nextFilter(f client.Filter) client.Filter {
	switch f {
	case client.FilterAll:
		return client.FilterPending
	case client.FilterPending:
		return client.FilterQualified
	case client.FilterQualified:
		return client.FilterUnqualified
	default:
		return client.FilterAll
	}
}

// summaryLine is the plain-text form of a reservation used for clipboard copy.
func summaryLine(r domain.Reservation) string {
	inspector := r.Inspector
	if inspector == "" {
		inspector = "-"
	}
	return fmt.Sprintf("%s %s %s inspector=%s", r.Label(), formatWhen(r.CreatedAt), r.Status, inspector)
}

func (m boardModel) View() string {
	var b strings.Builder

	// Filter line
	countStr := fmt.Sprintf("%d reservations", len(m.reservations))
	if len(m.reservations) == 1 {
		countStr = "1 reservation"
	}
	b.WriteString(" " + metaStyle.Render("filter:") + " " + accentStyle.Render(m.filter.String()) +
		metaStyle.Render(" · "+countStr) + "\n\n")

	switch {
	case m.fetching && len(m.reservations) == 0:
		b.WriteString(" " + dimStyle.Render("loading reservations...") + "\n")
	case m.err != "" && len(m.reservations) == 0:
		b.WriteString(" " + errorStyle.Render("error: "+m.err) + "\n")
	case len(m.reservations) == 0:
		b.WriteString(" " + dimStyle.Render("no reservations yet") + "\n")
	default:
		for i, res := range m.reservations {
			cursor := " "
			labelStyle := normalStyle
			if i == m.cursor {
				cursor = accentStyle.Render("▸")
				labelStyle = selectedStyle
			}

			inspector := res.Inspector
			if inspector == "" {
				inspector = "-"
			}

			row := fmt.Sprintf(" %s %s  %s  %s  %s\n",
				cursor,
				labelStyle.Render(fmt.Sprintf("%-8s", res.Label())),
				metaStyle.Render(formatWhen(res.CreatedAt)),
				statusStyle(res.Status).Render(fmt.Sprintf("%-11s", string(res.Status))),
				dimStyle.Render(truncStr(inspector, 20)))
			b.WriteString(row)
		}
	}

	// Transient status line
	switch {
	case m.err != "" && len(m.reservations) > 0:
		b.WriteString("\n " + errorStyle.Render(m.err) + "\n")
	case m.notice != "":
		b.WriteString("\n " + okStyle.Render(m.notice) + "\n")
	}

	return b.String()
}

func (m boardModel) helpKeys() string {
	keys := helpEntry("j/k", "nav") + "  " + helpEntry("f", "filter") + "  "
	if m.authed {
		keys += helpEntry("y", "pass") + "  " + helpEntry("x", "fail") + "  "
	}
	keys += helpEntry("c", "copy") + "  " + helpEntry("r", "refresh")
	return keys
}
