package engine

// BoxPositions returns the primary cell of every obstacle (a single box or the
// left half of a wide box) in row-major order.
func BoxPositions(b *Board) []Position {
	var positions []Position
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			switch b.tiles[y*b.width+x] {
			case Box, BoxLeft:
				positions = append(positions, Position{X: x, Y: y})
			}
		}
	}
	return positions
}

// DescribeCell returns the tile at p and whether the robot stands there.
// Cells outside the board are reported as walls.
func DescribeCell(b *Board, p Position) (Tile, bool) {
	tile, err := b.TileAt(p)
	if err != nil {
		return Wall, false
	}
	return tile, b.Robot() == p
}

// PartnerOf returns the other half of the wide box at p.
func PartnerOf(b *Board, p Position) (Position, bool) {
	tile, err := b.TileAt(p)
	if err != nil {
		return p, false
	}
	switch tile {
	case BoxLeft:
		return p.Add(Right), true
	case BoxRight:
		return p.Add(Left), true
	}
	return p, false
}
