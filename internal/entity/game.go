package entity

import "time"

const (
	StatusInProgress = "in_progress"
	StatusWin        = "win"
	StatusDraw       = "draw"
)

// Outcome is the derived result of a board. It is comparable, so observers can diff it
// against the outcome they rendered last.
type Outcome struct {
	Status string `json:"status"`
	Winner Player `json:"winner,omitempty"`
}

func InProgress() Outcome {
	return Outcome{Status: StatusInProgress}
}

func Win(p Player) Outcome {
	return Outcome{Status: StatusWin, Winner: p}
}

func Draw() Outcome {
	return Outcome{Status: StatusDraw}
}

func (that Outcome) IsTerminal() bool {
	return that.Status != StatusInProgress
}

func (that Outcome) IsWin() bool {
	return that.Status == StatusWin
}

// GameState is the whole observable state of one session.
type GameState struct {
	Board        Board   `json:"board"`
	ActivePlayer Player  `json:"active_player"`
	Outcome      Outcome `json:"outcome"`
}

// NewGameState is the only way GameState values are built, so Outcome always matches Board.
func NewGameState(board Board, active Player) GameState {
	return GameState{
		Board:        board,
		ActivePlayer: active,
		Outcome:      Evaluate(board),
	}
}

// Snapshot is what gets published to observers after each command.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Starter   Player    `json:"starter"`
	State     GameState `json:"state"`
	Moves     int       `json:"moves"`
	UpdatedAt time.Time `json:"updated_at"`
}
