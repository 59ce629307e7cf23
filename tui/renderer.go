package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

var (
	wallStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	floorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#333344"))

	boxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d9a441")).
			Bold(true)

	robotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Bold(true)

	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8844")).
			Bold(true)

	acceptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
)

// RenderBoard draws the rendered rows with one style per tile kind.
func RenderBoard(state *engine.GameState) string {
	if state == nil || len(state.Rows) == 0 {
		return "No puzzle loaded"
	}

	lines := make([]string, len(state.Rows))
	for y, row := range state.Rows {
		var b strings.Builder
		for i := 0; i < len(row); i++ {
			b.WriteString(renderCell(row[i]))
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func renderCell(c byte) string {
	s := string(c)
	switch c {
	case engine.RobotChar:
		return robotStyle.Render(s)
	case byte(engine.Wall):
		return wallStyle.Render(s)
	case byte(engine.Box), byte(engine.BoxLeft), byte(engine.BoxRight):
		return boxStyle.Render(s)
	default:
		return floorStyle.Render(s)
	}
}

// RenderHUD shows the score, counters and the outcome of the last instruction.
func RenderHUD(state *engine.GameState, last *engine.StepResult) string {
	if state == nil {
		return ""
	}

	var lines []string
	lines = append(lines, titleStyle.Render(state.ConfigName))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Score: %d", state.Score))
	lines = append(lines, fmt.Sprintf("Boxes: %d", state.Boxes))
	lines = append(lines, fmt.Sprintf("Robot: (%d,%d)", state.RobotPos.X, state.RobotPos.Y))
	lines = append(lines, acceptedStyle.Render(fmt.Sprintf("Accepted: %d", state.AcceptedMoves)))
	lines = append(lines, rejectedStyle.Render(fmt.Sprintf("Rejected: %d", state.RejectedMoves)))
	lines = append(lines, fmt.Sprintf("Script: %d/%d", state.ScriptCursor, state.ScriptLength))

	if last != nil {
		lines = append(lines, "")
		if last.Accepted {
			lines = append(lines, acceptedStyle.Render(fmt.Sprintf("%s ok, pushed %d", last.Direction, last.Pushed)))
		} else {
			lines = append(lines, rejectedStyle.Render(fmt.Sprintf("%s blocked", last.Direction)))
		}
	}
	if state.Message != "" {
		lines = append(lines, "", state.Message)
	}

	lines = append(lines, "", helpStyle.Render("arrows/wasd move • n step script • g run script • r reset • q quit"))
	return hudBorderStyle.Render(strings.Join(lines, "\n"))
}
