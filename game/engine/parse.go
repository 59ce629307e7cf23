package engine

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseBoard builds a board from layout rows. Rows must be rectangular, hold
// exactly one robot and only known tile characters, and pair every box half.
func ParseBoard(layout []string) (*Board, error) {
	if len(layout) < MinGridSize {
		return nil, fmt.Errorf("%w: layout is empty", ErrInvalidLayout)
	}
	height := len(layout)
	width := utf8.RuneCountInString(layout[0])
	if width < MinGridSize || width > MaxGridSize || height > MaxGridSize {
		return nil, fmt.Errorf("%w: size %dx%d outside %d..%d", ErrInvalidLayout, width, height, MinGridSize, MaxGridSize)
	}

	board := NewBoard(width, height, Position{})
	robots := 0
	for y, row := range layout {
		cells := []rune(row)
		if len(cells) != width {
			return nil, fmt.Errorf("%w: row %d has %d characters, expected %d", ErrInvalidLayout, y+1, len(cells), width)
		}
		for x, ch := range cells {
			p := Position{X: x, Y: y}
			if ch == RobotChar {
				board.setRobot(p)
				robots++
				continue
			}
			tile, ok := ParseTile(ch)
			if !ok {
				return nil, fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrInvalidLayout, ch, y+1, x+1)
			}
			_ = board.setTile(p, tile)
		}
	}

	if robots != 1 {
		return nil, fmt.Errorf("%w: layout must contain exactly one robot (@), got %d", ErrInvalidLayout, robots)
	}
	if err := board.Validate(); err != nil {
		return nil, err
	}
	return board, nil
}

// ParseMoves parses an instruction stream of ^ v < > characters. Whitespace,
// including line breaks between instruction lines, is ignored.
func ParseMoves(text string) ([]Direction, error) {
	moves := make([]Direction, 0, len(text))
	for i, ch := range text {
		if unicode.IsSpace(ch) {
			continue
		}
		switch ch {
		case '^':
			moves = append(moves, Up)
		case 'v':
			moves = append(moves, Down)
		case '<':
			moves = append(moves, Left)
		case '>':
			moves = append(moves, Right)
		default:
			return nil, fmt.Errorf("%w: unexpected character '%c' at offset %d", ErrInvalidMove, ch, i)
		}
	}
	return moves, nil
}

// FormatMoves renders moves back into the instruction character form.
func FormatMoves(moves []Direction) string {
	var sb strings.Builder
	sb.Grow(len(moves))
	for _, m := range moves {
		sb.WriteByte(m.Symbol())
	}
	return sb.String()
}

// SplitInput splits raw puzzle text into its map rows and instruction text.
// The two blocks are separated by the first blank line; the instruction
// block may be absent.
func SplitInput(text string) ([]string, string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimLeft(text, "\n")

	mapBlock, moveBlock, _ := strings.Cut(text, "\n\n")
	var layout []string
	for _, line := range strings.Split(mapBlock, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		layout = append(layout, line)
	}
	if len(layout) == 0 {
		return nil, "", fmt.Errorf("%w: no map rows found", ErrInvalidLayout)
	}
	return layout, strings.TrimSpace(moveBlock), nil
}

// WidenLayout doubles every column: walls and floor become two cells, a box
// becomes a [] pair and the robot keeps the left cell of its pair.
func WidenLayout(layout []string) []string {
	wide := make([]string, len(layout))
	for y, row := range layout {
		var sb strings.Builder
		sb.Grow(len(row) * 2)
		for _, ch := range row {
			switch ch {
			case rune(Wall):
				sb.WriteString("##")
			case rune(Box):
				sb.WriteString("[]")
			case rune(Empty):
				sb.WriteString("..")
			case RobotChar:
				sb.WriteString("@.")
			default:
				// leave unknown characters for ParseBoard to reject
				sb.WriteRune(ch)
				sb.WriteRune(ch)
			}
		}
		wide[y] = sb.String()
	}
	return wide
}
