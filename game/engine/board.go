package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Board is a fixed-size grid of tiles plus the robot position. The robot is
// not a tile: the cell under it always holds Empty.
type Board struct {
	width  int
	height int
	tiles  []Tile
	robot  Position
}

// NewBoard creates an all-empty board with the robot at the given position.
func NewBoard(width, height int, robot Position) *Board {
	tiles := make([]Tile, width*height)
	for i := range tiles {
		tiles[i] = Empty
	}
	return &Board{
		width:  width,
		height: height,
		tiles:  tiles,
		robot:  robot,
	}
}

// Width returns the number of columns
func (b *Board) Width() int {
	return b.width
}

// Height returns the number of rows
func (b *Board) Height() int {
	return b.height
}

// InBounds reports whether p lies inside [0,width)x[0,height).
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.width && p.Y >= 0 && p.Y < b.height
}

// TileAt returns the tile at p, or ErrOutOfBounds.
func (b *Board) TileAt(p Position) (Tile, error) {
	if !b.InBounds(p) {
		return Wall, fmt.Errorf("%w: %s on %dx%d board", ErrOutOfBounds, p, b.width, b.height)
	}
	return b.tiles[p.Y*b.width+p.X], nil
}

// setTile overwrites a cell. Only the committer and the parser write tiles.
func (b *Board) setTile(p Position, t Tile) error {
	if !b.InBounds(p) {
		return fmt.Errorf("%w: %s on %dx%d board", ErrOutOfBounds, p, b.width, b.height)
	}
	b.tiles[p.Y*b.width+p.X] = t
	return nil
}

// Robot returns the current robot position
func (b *Board) Robot() Position {
	return b.robot
}

func (b *Board) setRobot(p Position) {
	b.robot = p
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	tiles := make([]Tile, len(b.tiles))
	copy(tiles, b.tiles)
	return &Board{
		width:  b.width,
		height: b.height,
		tiles:  tiles,
		robot:  b.robot,
	}
}

// Equal reports whether both boards have identical tiles and robot position.
func (b *Board) Equal(other *Board) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.width != other.width || b.height != other.height || b.robot != other.robot {
		return false
	}
	for i := range b.tiles {
		if b.tiles[i] != other.tiles[i] {
			return false
		}
	}
	return true
}

// Rows renders the board one string per row, with the robot drawn as '@'.
func (b *Board) Rows() []string {
	rows := make([]string, b.height)
	line := make([]byte, b.width)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if b.robot.X == x && b.robot.Y == y {
				line[x] = RobotChar
				continue
			}
			line[x] = byte(b.tiles[y*b.width+x])
		}
		rows[y] = string(line)
	}
	return rows
}

// String renders the board as newline separated rows.
func (b *Board) String() string {
	return strings.Join(b.Rows(), "\n")
}

// CountTiles counts cells holding the given tile.
func (b *Board) CountTiles(t Tile) int {
	count := 0
	for _, tile := range b.tiles {
		if tile == t {
			count++
		}
	}
	return count
}

// Validate checks the board invariants: the robot stands on an in-bounds
// Empty cell and every box half has its partner next to it.
func (b *Board) Validate() error {
	if len(b.tiles) != b.width*b.height {
		return fmt.Errorf("%w: %d tiles for %dx%d board", ErrInvalidLayout, len(b.tiles), b.width, b.height)
	}
	robotTile, err := b.TileAt(b.robot)
	if err != nil {
		return fmt.Errorf("%w: robot %v", ErrInvalidLayout, err)
	}
	if robotTile != Empty {
		return fmt.Errorf("%w: robot at %s stands on %s", ErrInvalidLayout, b.robot, robotTile.Name())
	}
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			p := Position{X: x, Y: y}
			switch b.tiles[y*b.width+x] {
			case BoxLeft:
				if partner, _ := b.TileAt(p.Add(Right)); partner != BoxRight {
					return fmt.Errorf("%w: box half at %s has no right partner", ErrInvalidLayout, p)
				}
			case BoxRight:
				if partner, _ := b.TileAt(p.Add(Left)); partner != BoxLeft {
					return fmt.Errorf("%w: box half at %s has no left partner", ErrInvalidLayout, p)
				}
			}
		}
	}
	return nil
}

type boardJSON struct {
	Rows []string `json:"rows"`
}

// MarshalJSON encodes the board as its rendered rows.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Rows: b.Rows()})
}

// UnmarshalJSON rebuilds the board from rendered rows.
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseBoard(raw.Rows)
	if err != nil {
		return err
	}
	*b = *parsed
	return nil
}
