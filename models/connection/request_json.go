package connection

import (
	"encoding/json"
	"fmt"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

// ConnectionRequest identifies a new or reconnecting client.
type ConnectionRequest struct {
	Username      string `json:"username,omitempty"`
	GameID        string `json:"gameId,omitempty"`
	PlayerID      string `json:"playerId,omitempty"`
	UseAiOpponent bool   `json:"useAiOpponent,omitempty"`
}

// ShipPositionsRequest carries one declared placement per ship type.
type ShipPositionsRequest map[mb.ShipType]mb.ShipData

// Validate verifies the request declares exactly the known fleet with
// recognised orientations. Grid bounds are enforced by placement
// validation so the offending cell can be reported.
func (r ShipPositionsRequest) Validate() error {
	for _, shipType := range mb.AllShipTypes() {
		data, prs := r[shipType]
		if !prs {
			return fmt.Errorf("missing placement for ship %q", shipType)
		}
		if !data.Orientation.IsValid() {
			return fmt.Errorf("ship %q has invalid orientation %q", shipType, data.Orientation)
		}
	}

	for shipType := range r {
		if !shipType.IsValid() {
			return fmt.Errorf("unrecognised ship type %q", shipType)
		}
	}
	return nil
}

func (r ShipPositionsRequest) ToShipData() map[mb.ShipType]mb.ShipData {
	return map[mb.ShipType]mb.ShipData(r)
}

// AttackRequest is a single cell shot. Prediction is an opaque
// client-side model output forwarded to the event publisher.
type AttackRequest struct {
	Origin     mb.Coordinate   `json:"origin"`
	Prediction json.RawMessage `json:"prediction,omitempty"`
}

func (r AttackRequest) Validate(gridSize int) error {
	if r.Origin.X < 0 || r.Origin.X >= gridSize || r.Origin.Y < 0 || r.Origin.Y >= gridSize {
		return fmt.Errorf("attack origin [%d, %d] is out of grid bounds", r.Origin.X, r.Origin.Y)
	}
	return nil
}

// BonusRequest reports how many shots landed during the timed bonus
// volley on the client.
type BonusRequest struct {
	Hits int `json:"hits"`
}

func (r BonusRequest) Validate() error {
	if r.Hits < 0 {
		return fmt.Errorf("bonus hits must not be negative, got %d", r.Hits)
	}
	return nil
}
