package engine

// Score returns the GPS checksum of the board: the sum of 100*y + x over every
// single box and every left box half.
func Score(b *Board) int {
	sum := 0
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			switch b.tiles[y*b.width+x] {
			case Box, BoxLeft:
				sum += GPSCoordinate(Position{X: x, Y: y})
			}
		}
	}
	return sum
}

// GPSCoordinate returns the score contribution of a box whose primary half is at p.
func GPSCoordinate(p Position) int {
	return 100*p.Y + p.X
}
