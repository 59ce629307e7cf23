package engine

// StepResult describes the outcome of one instruction.
type StepResult struct {
	Index     int       `json:"index"`
	Direction Direction `json:"direction"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Accepted  bool      `json:"accepted"`
	// Pushed is the number of obstacle cells relocated by the instruction.
	Pushed int `json:"pushed"`
}

// Simulator applies instructions to a board it exclusively owns. A rejected
// instruction leaves the board untouched and is not an error.
type Simulator struct {
	board *Board
	steps int
}

// NewSimulator creates a simulator driving the given board in place.
func NewSimulator(board *Board) *Simulator {
	return &Simulator{board: board}
}

// Board returns the board being mutated.
func (s *Simulator) Board() *Board {
	return s.board
}

// Step applies a single instruction and reports whether it was accepted.
func (s *Simulator) Step(dir Direction) StepResult {
	from := s.board.Robot()
	result := StepResult{
		Index:     s.steps,
		Direction: dir,
		From:      from,
		To:        from,
	}
	s.steps++

	if !CanMove(s.board, from, dir) {
		return result
	}

	result.Pushed = countPushed(s.board, from, dir)
	CommitMove(s.board, from, dir)
	s.board.setRobot(from.Add(dir))

	result.To = s.board.Robot()
	result.Accepted = true
	return result
}

// Run applies the instructions in order and returns one result per instruction.
func (s *Simulator) Run(moves []Direction) []StepResult {
	results := make([]StepResult, 0, len(moves))
	for _, dir := range moves {
		results = append(results, s.Step(dir))
	}
	return results
}

// Simulate runs moves against a copy of board and returns the final board,
// the per-instruction acceptance flags and the GPS score.
func Simulate(board *Board, moves []Direction) (*Board, []bool, int) {
	sim := NewSimulator(board.Clone())
	accepted := make([]bool, len(moves))
	for i, r := range sim.Run(moves) {
		accepted[i] = r.Accepted
	}
	return sim.Board(), accepted, Score(sim.Board())
}
