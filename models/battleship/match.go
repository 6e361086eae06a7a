package battleship

import (
	"github.com/google/uuid"

	cerr "github.com/saeidalz13/seabattle-backend/internal/error"
)

type MatchPhase string

const (
	MatchPhaseNotReady MatchPhase = "not-ready"
	MatchPhaseAttack   MatchPhase = "attack"
	MatchPhaseBonus    MatchPhase = "bonus"
	MatchPhaseFinished MatchPhase = "finished"
)

// MatchInstance pairs two players and tracks the turn-phase state
// machine. Only player identities are stored; player records live in
// their own cache.
type MatchInstance struct {
	UUID          string     `json:"uuid"`
	PlayerA       string     `json:"playerA"`
	PlayerB       string     `json:"playerB,omitempty"`
	Phase         MatchPhase `json:"phase"`
	ActivePlayer  string     `json:"activePlayer,omitempty"`
	BonusShipType ShipType   `json:"bonusType,omitempty"`
	Winner        string     `json:"winner,omitempty"`
}

func NewMatchInstance(playerA string) *MatchInstance {
	return &MatchInstance{
		UUID:    uuid.NewString(),
		PlayerA: playerA,
		Phase:   MatchPhaseNotReady,
	}
}

// AddPlayer fills the second seat. A match fills exactly once.
func (m *MatchInstance) AddPlayer(playerUuid string) error {
	if m.PlayerB != "" {
		return cerr.ErrMatchSeatTaken(m.UUID)
	}
	m.PlayerB = playerUuid
	return nil
}

func (m *MatchInstance) IsJoinable() bool {
	return m.PlayerB == ""
}

func (m *MatchInstance) IsInPhase(phase MatchPhase) bool {
	return m.Phase == phase
}

func (m *MatchInstance) IsPlayerTurn(playerUuid string) bool {
	return m.ActivePlayer != "" && m.ActivePlayer == playerUuid
}

// OpponentUUID returns the other participant's uuid, or empty if the
// given uuid is not part of this match or the match has a single seat.
func (m *MatchInstance) OpponentUUID(playerUuid string) string {
	switch playerUuid {
	case m.PlayerA:
		return m.PlayerB
	case m.PlayerB:
		return m.PlayerA
	default:
		return ""
	}
}

// SetMatchReady transitions not-ready to attack once both boards are
// locked. The phase guard makes redelivered store notifications a
// no-op; the return value reports whether a transition happened.
func (m *MatchInstance) SetMatchReady() bool {
	if m.Phase != MatchPhaseNotReady || m.PlayerB == "" {
		return false
	}
	m.Phase = MatchPhaseAttack
	m.ActivePlayer = m.PlayerA
	return true
}

// ChangeTurn hands control to the other participant after a non-lethal
// attack or a processed bonus round. Calling it without a second player
// or before the match is ready is a programmer error.
func (m *MatchInstance) ChangeTurn() error {
	if m.Phase == MatchPhaseFinished {
		return cerr.ErrMatchFinished(m.UUID)
	}
	if m.PlayerB == "" {
		return cerr.ErrMatchMissingOpponent(m.UUID)
	}
	if m.Phase == MatchPhaseNotReady {
		return cerr.ErrMatchNotReady(m.UUID)
	}

	if m.ActivePlayer == m.PlayerA {
		m.ActivePlayer = m.PlayerB
	} else {
		m.ActivePlayer = m.PlayerA
	}

	m.Phase = MatchPhaseAttack
	m.BonusShipType = ""
	return nil
}

// StartBonusRound grants the active player a timed volley against the
// ship type they just destroyed. The turn does not change hands.
func (m *MatchInstance) StartBonusRound(shipType ShipType) error {
	if m.Phase == MatchPhaseFinished {
		return cerr.ErrMatchFinished(m.UUID)
	}
	if m.Phase != MatchPhaseAttack {
		return cerr.ErrMatchNotReady(m.UUID)
	}

	m.Phase = MatchPhaseBonus
	m.BonusShipType = shipType
	return nil
}

// SetWinner finishes the match. The finished phase is terminal; no
// later call mutates phase or winner.
func (m *MatchInstance) SetWinner(playerUuid string) error {
	if m.Phase == MatchPhaseFinished {
		return cerr.ErrMatchFinished(m.UUID)
	}
	if m.Phase == MatchPhaseNotReady {
		return cerr.ErrMatchNotReady(m.UUID)
	}

	m.Phase = MatchPhaseFinished
	m.Winner = playerUuid
	m.BonusShipType = ""
	return nil
}
