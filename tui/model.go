package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// Model is the Bubbletea model for playing one puzzle locally.
type Model struct {
	engine   *engine.GameEngine
	last     *engine.StepResult
	quitting bool
}

// NewModel wraps a ready engine.
func NewModel(eng *engine.GameEngine) Model {
	return Model{engine: eng}
}

// Run plays the puzzle full-screen until the user quits.
func Run(eng *engine.GameEngine) error {
	_, err := tea.NewProgram(NewModel(eng), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

// View renders the board next to the HUD.
func (m Model) View() string {
	if m.quitting {
		state := m.engine.GetState()
		return fmt.Sprintf("Final score: %d\n", state.Score)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		RenderBoard(m.engine.GetState()),
		"  ",
		RenderHUD(m.engine.GetState(), m.last),
	) + "\n"
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "w", "^":
		m.move(engine.Up)
	case "down", "s", "v":
		m.move(engine.Down)
	case "left", "a", "<":
		m.move(engine.Left)
	case "right", "d", ">":
		m.move(engine.Right)

	case "r":
		m.engine.Reset()
		m.last = nil
	case "n":
		if steps := m.engine.RunScript(1); len(steps) == 1 {
			m.last = &steps[0]
		}
	case "g":
		if steps := m.engine.RunScript(0); len(steps) > 0 {
			m.last = &steps[len(steps)-1]
		}
	}

	return m, nil
}

func (m *Model) move(dir engine.Direction) {
	step := m.engine.MoveDirection(dir)
	m.last = &step
}
