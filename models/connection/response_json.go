package connection

import (
	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

// GameView is the game configuration slice of a snapshot.
type GameView struct {
	UUID  string       `json:"uuid"`
	State mb.GameState `json:"state"`
}

// PlayerView is the requesting player's own record, board included.
type PlayerView struct {
	UUID     string            `json:"uuid"`
	Username string            `json:"username"`
	Match    string            `json:"match,omitempty"`
	Board    mb.Board          `json:"board"`
	Attacks  []mb.AttackRecord `json:"attacks"`
}

// OpponentView deliberately omits the opponent's board so clients
// cannot see unhit ship positions. Their attack history is what the
// player needs to render incoming shots.
type OpponentView struct {
	UUID     string            `json:"uuid"`
	Username string            `json:"username"`
	IsAi     bool              `json:"isAi"`
	Attacks  []mb.AttackRecord `json:"attacks"`
}

// PlayerConfiguration is the full per-player state snapshot sent on
// connection, placement, and every phase change.
type PlayerConfiguration struct {
	Game     GameView          `json:"game"`
	Player   PlayerView        `json:"player"`
	Match    *mb.MatchInstance `json:"match"`
	Opponent *OpponentView     `json:"opponent,omitempty"`
}

func NewPlayerConfiguration(game *mb.GameConfiguration, player *mb.Player, match *mb.MatchInstance, opponent *mb.Player) PlayerConfiguration {
	config := PlayerConfiguration{
		Game: GameView{UUID: game.UUID, State: game.State},
		Player: PlayerView{
			UUID:     player.UUID,
			Username: player.Username,
			Match:    player.MatchUUID,
			Board:    player.Board,
			Attacks:  player.Attacks,
		},
		Match: match,
	}

	if opponent != nil {
		config.Opponent = &OpponentView{
			UUID:     opponent.UUID,
			Username: opponent.Username,
			IsAi:     opponent.IsAi,
			Attacks:  opponent.Attacks,
		}
	}
	return config
}

// ShotResult is an attack outcome along with where it landed.
type ShotResult struct {
	Origin    mb.Coordinate `json:"origin"`
	Hit       bool          `json:"hit"`
	Destroyed bool          `json:"destroyed,omitempty"`
	ShipType  mb.ShipType   `json:"type,omitempty"`
}

func NewShotResult(origin mb.Coordinate, result mb.AttackResult) ShotResult {
	return ShotResult{
		Origin:    origin,
		Hit:       result.Hit,
		Destroyed: result.Destroyed,
		ShipType:  result.ShipType,
	}
}

// AttackResponse is sent to both the attacker and, when live, the
// defender after a resolved attack.
type AttackResponse struct {
	Attacker string     `json:"attacker"`
	Result   ShotResult `json:"result"`
	PlayerConfiguration
}
