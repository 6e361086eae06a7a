package battleship

import (
	"time"

	"github.com/google/uuid"
)

type GameState string

const (
	GameStateLobby   GameState = "lobby"
	GameStateActive  GameState = "active"
	GameStatePaused  GameState = "paused"
	GameStateStopped GameState = "stopped"
)

// GameConfiguration is the singleton per-deployment record that gates
// all gameplay. It is read-mostly; external mutations arrive through
// the store-change bridge.
type GameConfiguration struct {
	UUID      string    `json:"uuid"`
	CreatedAt int64     `json:"date"`
	State     GameState `json:"state"`
}

func NewGameConfiguration(state GameState) *GameConfiguration {
	return &GameConfiguration{
		UUID:      uuid.NewString()[:8],
		CreatedAt: time.Now().UnixMilli(),
		State:     state,
	}
}

func (g *GameConfiguration) IsInState(state GameState) bool {
	return g.State == state
}

// PlacementAllowed reports whether ship positions may be submitted.
// Attacks additionally require the active state.
func (g *GameConfiguration) PlacementAllowed() bool {
	return g.State == GameStateLobby || g.State == GameStateActive
}
