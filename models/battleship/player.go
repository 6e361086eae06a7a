package battleship

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// AttackResult is the outcome of a single shot against a board.
type AttackResult struct {
	Hit       bool     `json:"hit"`
	Destroyed bool     `json:"destroyed,omitempty"`
	ShipType  ShipType `json:"type,omitempty"`
}

// AttackRecord is one entry in a player's append-only attack history.
// Ts is a server-assigned unix millisecond timestamp.
type AttackRecord struct {
	Ts     int64        `json:"ts"`
	Origin Coordinate   `json:"origin"`
	Result AttackResult `json:"result"`
}

// Player is the durable participant record. It is owned by the shared
// store; in-memory copies are re-read before every state change.
type Player struct {
	UUID      string         `json:"uuid"`
	Username  string         `json:"username"`
	IsAi      bool           `json:"isAi"`
	MatchUUID string         `json:"match,omitempty"`
	Board     Board          `json:"board"`
	Attacks   []AttackRecord `json:"attacks"`
}

func NewPlayer(username string, isAi bool) *Player {
	return &Player{
		UUID:     uuid.NewString(),
		Username: username,
		IsAi:     isAi,
		Attacks:  make([]AttackRecord, 0),
	}
}

// SetShipPositions replaces the player's board. Rejected placements are
// kept with valid=false so the client still sees what it sent.
func (p *Player) SetShipPositions(positions map[ShipType]ShipPlacement, valid bool) {
	p.Board = Board{Valid: valid, Positions: positions}
}

func (p *Player) HasLockedShipPositions() bool {
	return p.Board.Valid
}

// DetermineAttackResult resolves a shot against this player's own
// board. A matching ship cell is marked hit, and destroyed is
// recomputed over every cell of that ship type.
func (p *Player) DetermineAttackResult(origin Coordinate) AttackResult {
	for shipType, placement := range p.Board.Positions {
		for i := range placement.Cells {
			if placement.Cells[i].Origin != origin {
				continue
			}

			placement.Cells[i].Hit = true
			return AttackResult{
				Hit:       true,
				Destroyed: placement.IsDestroyed(),
				ShipType:  shipType,
			}
		}
	}

	return AttackResult{Hit: false}
}

// RecordAttackResult appends the shot this player made to their attack
// history. Past entries are never mutated.
func (p *Player) RecordAttackResult(origin Coordinate, result AttackResult) {
	p.Attacks = append(p.Attacks, AttackRecord{
		Ts:     time.Now().UnixMilli(),
		Origin: origin,
		Result: result,
	})
}

// HasAttackedLocation reports whether this player already fired at the
// given origin. Used to reject duplicate attacks.
func (p *Player) HasAttackedLocation(origin Coordinate) bool {
	for _, attack := range p.Attacks {
		if attack.Origin == origin {
			return true
		}
	}
	return false
}

// HasAttacked reports whether the player has fired at least one shot.
func (p *Player) HasAttacked() bool {
	return len(p.Attacks) > 0
}

func (p *Player) ShotsFired() int {
	return len(p.Attacks)
}

// ContinuousHitsCount counts the streak of consecutive hits starting
// from the player's most recent attack, stopping at the first miss.
func (p *Player) ContinuousHitsCount() int {
	attacks := make([]AttackRecord, len(p.Attacks))
	copy(attacks, p.Attacks)

	sort.SliceStable(attacks, func(i, j int) bool {
		return attacks[i].Ts > attacks[j].Ts
	})

	var streak int
	for _, attack := range attacks {
		if !attack.Result.Hit {
			break
		}
		streak++
	}
	return streak
}

// IsGameOverFor reports whether every cell of every declared ship on
// the player's board has been hit.
func IsGameOverFor(p *Player) bool {
	if len(p.Board.Positions) == 0 {
		return false
	}

	for _, placement := range p.Board.Positions {
		if !placement.IsDestroyed() {
			return false
		}
	}
	return true
}
