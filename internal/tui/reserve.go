package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Yizhe0407/dormcheck/pkg/client"
	"github.com/Yizhe0407/dormcheck/pkg/domain"
)

type reserveField int

const (
	fieldBuilding reserveField = iota
	fieldFloor
	fieldRoom
	numReserveFields
)

// reservationAddedMsg reports the outcome of a form submission. The app
// routes it both here (to clear the form) and to the board (to refresh).
type reservationAddedMsg struct {
	err error
}

type reserveModel struct {
	client     *client.Client
	building   string
	floor      string
	room       string
	focus      reserveField
	submitting bool
	statusMsg  string
	failed     bool
	width      int
	height     int
}

func newReserveModel(c *client.Client) reserveModel {
	return reserveModel{client: c}
}

func (m reserveModel) Init() tea.Cmd {
	return nil
}

func (m reserveModel) Update(msg tea.Msg) (reserveModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case reservationAddedMsg:
		m.submitting = false
		if msg.err != nil {
			m.failed = true
			m.statusMsg = msg.err.Error()
			return m, nil
		}
		m.failed = false
		m.statusMsg = "reservation submitted"
		m.building = ""
		m.floor = ""
		m.room = ""
		m.focus = fieldBuilding
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m reserveModel) handleKey(msg tea.KeyMsg) (reserveModel, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focus == fieldRoom {
			return m.submit()
		}
		m.focus++
	case "tab", "down", "j":
		m.focus = (m.focus + 1) % numReserveFields
	case "shift+tab", "up", "k":
		m.focus = (m.focus - 1 + numReserveFields) % numReserveFields
	case "h", "l", "left", "right":
		key := msg.String()
		if key == "left" {
			key = "h"
		}
		if key == "right" {
			key = "l"
		}
		m.statusMsg = ""
		switch m.focus {
		case fieldBuilding:
			m.building = cycleOption(domain.Buildings, m.building, key)
		case fieldFloor:
			prev := m.floor
			m.floor = cycleOption(domain.Floors, m.floor, key)
			if m.floor != prev {
				// Room options are a function of the floor.
				m.room = ""
			}
		case fieldRoom:
			if m.floor == "" {
				m.statusMsg = "select a floor first"
				return m, nil
			}
			m.room = cycleOption(domain.RoomsForFloor(m.floor), m.room, key)
		}
	}
	return m, nil
}

func (m reserveModel) submit() (reserveModel, tea.Cmd) {
	if m.submitting {
		// A request is already in flight.
		return m, nil
	}
	if m.building == "" || m.floor == "" || m.room == "" {
		m.failed = true
		m.statusMsg = "select building, floor and room"
		return m, nil
	}

	m.submitting = true
	m.statusMsg = ""
	req := client.AddReservationRequest{
		Building:   m.building,
		Floor:      m.floor,
		RoomNumber: m.room,
	}
	c := m.client
	return m, func() tea.Msg {
		err := c.AddReservation(context.Background(), req)
		return reservationAddedMsg{err: err}
	}
}

func (m reserveModel) View() string {
	var b strings.Builder

	b.WriteString(" " + dimStyle.Render("reserve a check-out inspection") + "\n\n")

	rows := []struct {
		field reserveField
		label string
		value string
	}{
		{fieldBuilding, "building", m.building},
		{fieldFloor, "floor", displayFloor(m.floor)},
		{fieldRoom, "room", m.room},
	}

	for _, row := range rows {
		cursor := " "
		labelStyle := metaStyle
		if row.field == m.focus {
			cursor = accentStyle.Render(">")
			labelStyle = selectedStyle
		}
		value := row.value
		if value == "" {
			value = inputPlaceholderStyle.Render("(h/l to select)")
		} else {
			value = normalStyle.Render(value)
		}
		b.WriteString(" " + cursor + " " + labelStyle.Render(padLabel(row.label)) + " " + value + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("submitting..."))
	case m.statusMsg != "" && m.failed:
		b.WriteString(" " + errorStyle.Render(m.statusMsg))
	case m.statusMsg != "":
		b.WriteString(" " + okStyle.Render(m.statusMsg))
	}

	return b.String()
}

func displayFloor(floor string) string {
	if floor == "" {
		return ""
	}
	return domain.FloorLabel(floor) + "F"
}

func padLabel(s string) string {
	for len(s) < 9 {
		s += " "
	}
	return s
}

func (m reserveModel) helpKeys() string {
	return helpEntry("tab", "next") + "  " + helpEntry("h/l", "select") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("esc", "board")
}
