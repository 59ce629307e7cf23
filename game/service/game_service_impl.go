package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// ErrInvalidRequest marks requests rejected before touching a session.
var ErrInvalidRequest = errors.New("invalid request")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Snapshot(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new puzzle session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.PuzzleConfig
	var err error
	configID := configName
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Printf("[SESSION] created %s with puzzle %s", sess.ID, configID)
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	log.Printf("[SESSION] deleted %s", sessionID)
	return nil
}

// Move applies a single instruction to a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	step := sess.Engine.MoveDirection(dir)
	state := sess.Engine.GetState().Snapshot()

	result := &MoveResult{
		Success:   step.Accepted,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, stepEvents(step)...),
	}
	info := toStepInfo(step, false)
	info.Idx = 1
	result.Step = &info
	if !step.Accepted {
		result.AttemptedTo = attemptedCell(state.Board, step)
	}

	log.Printf("[MOVE] session=%s dir=%s accepted=%t pushed=%d score=%d", sess.ID, dir, step.Accepted, step.Pushed, state.Score)

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("[SESSION] warning: failed to persist %s after move: %v", sessionID, err)
	}

	return result, nil
}

// BulkMove applies several instructions in order. A blocked push is a
// normal outcome and does not stop the batch.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
	}

	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	// Reject the whole batch if any instruction is malformed
	dirs := make([]engine.Direction, 0, len(moves))
	for i, m := range moves {
		dir, err := engine.ParseDirection(m)
		if err != nil {
			return nil, fmt.Errorf("%w: move %d: %w", ErrInvalidRequest, i+1, err)
		}
		dirs = append(dirs, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	start := sess.Engine.GetState()
	result.StartPos = start.RobotPos
	result.StartScore = start.Score

	for i, dir := range dirs {
		step := sess.Engine.MoveDirection(dir)
		result.MovesExecuted++
		if step.Accepted {
			result.Accepted++
		} else {
			result.Rejected++
		}

		info := toStepInfo(step, false)
		info.Idx = i + 1
		result.Steps = append(result.Steps, info)
		result.Events = append(result.Events, stepEvents(step)...)
	}

	end := sess.Engine.GetState().Snapshot()
	result.Success = result.Rejected == 0
	result.GameState = end
	result.EndPos = end.RobotPos
	result.EndScore = end.Score
	result.ScoreDelta = end.Score - result.StartScore
	result.Message = end.Message
	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.LocalView3x3 = end.LocalView3x3

	log.Printf("[BULK] session=%s moves=%d accepted=%d rejected=%d score=%d", sess.ID, result.MovesExecuted, result.Accepted, result.Rejected, end.Score)

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("[SESSION] warning: failed to persist %s after bulk moves: %v", sessionID, err)
	}

	return result, nil
}

// RunScript applies up to limit instructions of the puzzle's own stream.
// A non-positive limit runs the rest of the script.
func (s *gameServiceImpl) RunScript(ctx context.Context, sessionID string, limit int, trace bool) (*RunScriptResult, error) {
	if limit <= 0 || limit > engine.MaxScriptMoves {
		limit = engine.MaxScriptMoves
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	steps := sess.Engine.RunScript(limit)
	state := sess.Engine.GetState().Snapshot()

	result := &RunScriptResult{
		Applied:      len(steps),
		ScriptCursor: state.ScriptCursor,
		ScriptLength: state.ScriptLength,
		Finished:     state.ScriptCursor == state.ScriptLength,
		Score:        state.Score,
		GameState:    state,
	}
	for _, step := range steps {
		if step.Accepted {
			result.Accepted++
		} else {
			result.Rejected++
		}
		if trace {
			info := toStepInfo(step, true)
			info.Idx = step.Index + 1
			result.Steps = append(result.Steps, info)
		}
	}
	result.Events = []GameEvent{{
		Type:      EventScript,
		Message:   fmt.Sprintf("Applied %d scripted instructions (%d accepted, %d blocked)", result.Applied, result.Accepted, result.Rejected),
		Timestamp: time.Now(),
		Position:  state.RobotPos,
	}}

	log.Printf("[SCRIPT] session=%s applied=%d cursor=%d/%d score=%d", sess.ID, result.Applied, state.ScriptCursor, state.ScriptLength, state.Score)

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("[SESSION] warning: failed to persist %s after script run: %v", sessionID, err)
	}

	return result, nil
}

// Reset resets a session to its puzzle's initial layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	_ = s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset().Snapshot()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("[SESSION] warning: failed to persist %s after reset: %v", sessionID, err)
	}

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState().Snapshot(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append([]engine.MoveHistoryEntry{}, history[start:end]...)
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available puzzles
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific puzzle
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a puzzle to the library
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.PuzzleConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// Simulate runs a puzzle to completion without creating a session.
func (s *gameServiceImpl) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error) {
	var layout []string
	var moves string
	wide := req.Wide

	switch {
	case req.Input != "":
		rows, text, err := engine.SplitInput(req.Input)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		layout, moves = rows, text
	case req.ConfigName != "":
		config, err := s.configs.LoadConfig(req.ConfigName)
		if err != nil {
			return nil, err
		}
		layout, moves = config.Layout, config.Moves
		wide = wide || config.Wide
	default:
		return nil, fmt.Errorf("%w: config_name or input is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Moves) != "" {
		moves = req.Moves
	}

	dirs, err := engine.ParseMoves(moves)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	run := func(rows []string) (*engine.Board, []bool, int, error) {
		board, err := engine.ParseBoard(rows)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		final, accepted, score := engine.Simulate(board, dirs)
		return final, accepted, score, nil
	}

	primary := layout
	if wide {
		primary = engine.WidenLayout(layout)
	}
	final, accepted, score, err := run(primary)
	if err != nil {
		return nil, err
	}

	result := &SimulateResult{
		Rows:  final.Rows(),
		Score: score,
		Moves: len(dirs),
		Wide:  wide,
	}
	var outcomes strings.Builder
	for _, ok := range accepted {
		if ok {
			result.Accepted++
			outcomes.WriteByte('1')
		} else {
			result.Rejected++
			outcomes.WriteByte('0')
		}
	}
	result.Outcomes = outcomes.String()

	if req.Both && !wide {
		wideFinal, _, wideScore, err := run(engine.WidenLayout(layout))
		if err != nil {
			return nil, err
		}
		result.WideRows = wideFinal.Rows()
		result.WideScore = &wideScore
	}

	return result, nil
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "Puzzle reset to initial layout",
		Timestamp: time.Now(),
	}
}

// stepEvents describes one instruction outcome as events
func stepEvents(step engine.StepResult) []GameEvent {
	now := time.Now()
	if !step.Accepted {
		return []GameEvent{{
			Type:      EventBlocked,
			Message:   fmt.Sprintf("Blocked moving %s from (%d,%d)", step.Direction, step.From.X, step.From.Y),
			Timestamp: now,
			Position:  step.From,
		}}
	}

	events := []GameEvent{{
		Type:      EventMove,
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", step.Direction, step.To.X, step.To.Y),
		Timestamp: now,
		Position:  step.To,
	}}
	if step.Pushed > 0 {
		events = append(events, GameEvent{
			Type:      EventPush,
			Message:   fmt.Sprintf("Pushed %d box cells %s", step.Pushed, step.Direction),
			Timestamp: now,
			Position:  step.To.Add(step.Direction),
		})
	}
	return events
}

func toStepInfo(step engine.StepResult, scripted bool) StepInfo {
	return StepInfo{
		Idx:      step.Index,
		Dir:      step.Direction.String(),
		From:     step.From,
		To:       step.To,
		Pushed:   step.Pushed,
		Success:  step.Accepted,
		Scripted: scripted,
	}
}

// attemptedCell describes the cell a rejected instruction tried to enter
func attemptedCell(board *engine.Board, step engine.StepResult) *AttemptInfo {
	target := step.From.Add(step.Direction)
	info := &AttemptInfo{X: target.X, Y: target.Y}
	tile, err := board.TileAt(target)
	if err != nil {
		info.TileChar = "#"
		info.TileType = "boundary"
		return info
	}
	info.TileChar = tile.String()
	info.TileType = tile.Name()
	return info
}
