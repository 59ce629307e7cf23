package engine

import "fmt"

// CanMove reports whether whatever stands at from can step in dir, given
// every box it would have to push. It never mutates the board.
//
// A box half reached while moving vertically drags its partner, so both
// forward cells must be free; the half at target is checked first. Moving
// horizontally into a pair continues from the pair's far half.
func CanMove(b *Board, from Position, dir Direction) bool {
	target := from.Add(dir)
	tile, err := b.TileAt(target)
	if err != nil {
		return false
	}

	switch tile {
	case Wall:
		return false
	case Empty:
		return true
	case Box:
		return CanMove(b, target, dir)
	case BoxLeft:
		switch {
		case dir.IsVertical():
			return CanMove(b, target, dir) && CanMove(b, target.Add(Right), dir)
		case dir == Right:
			return CanMove(b, target.Add(Right), dir)
		default:
			return CanMove(b, target, dir)
		}
	case BoxRight:
		switch {
		case dir.IsVertical():
			return CanMove(b, target, dir) && CanMove(b, target.Add(Left), dir)
		case dir == Left:
			return CanMove(b, target.Add(Left), dir)
		default:
			return CanMove(b, target, dir)
		}
	}
	return false
}

// CommitMove relocates the entity at from one step in dir, first vacating
// the destination by pushing the chain in front of it. The cell at from is
// left Empty. The robot position itself is not updated.
//
// CommitMove must only be called after CanMove returned true for the same
// arguments; otherwise it panics with an error wrapping ErrPreconditionViolation.
func CommitMove(b *Board, from Position, dir Direction) {
	target := from.Add(dir)
	tile, err := b.TileAt(target)
	if err != nil {
		panic(fmt.Errorf("%w: %v", ErrPreconditionViolation, err))
	}

	switch tile {
	case Empty:
	case Wall:
		panic(fmt.Errorf("%w: push from %s %s into wall", ErrPreconditionViolation, from, dir))
	case Box:
		CommitMove(b, target, dir)
	case BoxLeft:
		partner := target.Add(Right)
		if dir == Right {
			// far half leads
			CommitMove(b, partner, dir)
			CommitMove(b, target, dir)
		} else {
			CommitMove(b, target, dir)
			CommitMove(b, partner, dir)
		}
	case BoxRight:
		partner := target.Add(Left)
		if dir == Left {
			CommitMove(b, partner, dir)
			CommitMove(b, target, dir)
		} else {
			CommitMove(b, target, dir)
			CommitMove(b, partner, dir)
		}
	default:
		panic(fmt.Errorf("%w: unknown tile %q at %s", ErrPreconditionViolation, tile, target))
	}

	relocate(b, from, target)
}

// relocate copies the tile at src into dst and clears src. dst must be Empty.
func relocate(b *Board, src, dst Position) {
	if occupant, _ := b.TileAt(dst); occupant != Empty {
		panic(fmt.Errorf("%w: %s still holds %s", ErrPreconditionViolation, dst, occupant.Name()))
	}
	moving, err := b.TileAt(src)
	if err != nil {
		panic(fmt.Errorf("%w: %v", ErrPreconditionViolation, err))
	}
	_ = b.setTile(dst, moving)
	_ = b.setTile(src, Empty)
}

// countPushed returns how many obstacle cells a validated move will relocate.
func countPushed(b *Board, from Position, dir Direction) int {
	seen := make(map[Position]bool)
	var walk func(p Position)
	walk = func(p Position) {
		target := p.Add(dir)
		tile, err := b.TileAt(target)
		if err != nil || !tile.IsBox() || seen[target] {
			return
		}
		seen[target] = true
		switch tile {
		case Box:
			walk(target)
		case BoxLeft:
			partner := target.Add(Right)
			if !seen[partner] {
				seen[partner] = true
				if dir.IsVertical() {
					walk(target)
					walk(partner)
				} else if dir == Right {
					walk(partner)
				} else {
					walk(target)
				}
			}
		case BoxRight:
			partner := target.Add(Left)
			if !seen[partner] {
				seen[partner] = true
				if dir.IsVertical() {
					walk(target)
					walk(partner)
				} else if dir == Left {
					walk(partner)
				} else {
					walk(target)
				}
			}
		}
	}
	walk(from)
	return len(seen)
}

// GenerateLocalView renders the 3x3 neighbourhood of the robot; cells outside
// the board are drawn as walls.
func (gs *GameState) GenerateLocalView() []string {
	if gs.Board == nil {
		return nil
	}
	b := gs.Board
	robot := b.Robot()
	lines := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		row := make([]byte, 0, 3)
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				row = append(row, RobotChar)
				continue
			}
			tile, _ := b.TileAt(Position{X: robot.X + dx, Y: robot.Y + dy})
			row = append(row, byte(tile))
		}
		lines = append(lines, string(row))
	}
	return lines
}
