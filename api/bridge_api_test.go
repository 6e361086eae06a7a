package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
	mc "github.com/saeidalz13/seabattle-backend/models/connection"
	"github.com/saeidalz13/seabattle-backend/store"
)

func newBridgedWorld(t *testing.T) (*world, *StoreChangeBridge) {
	t.Helper()

	w := newWorld(t)
	bridge := NewStoreChangeBridge(zap.NewNop(), w.sessions, w.players, w.matches, w.game, w.events)
	bridge.Start(context.Background())
	return w, bridge
}

// Both boards locking in must flip the match from not-ready to attack
// exactly once, whichever player's store event lands last.
func TestBridgeReadinessTransition(t *testing.T) {
	w, _ := newBridgedWorld(t)
	ctx := context.Background()

	playerA := mb.NewPlayer("brisk-eel-6", false)
	playerB := mb.NewPlayer("dull-crab-1", false)
	match := mb.NewMatchInstance(playerA.UUID)
	require.NoError(t, match.AddPlayer(playerB.UUID))
	playerA.MatchUUID = match.UUID
	playerB.MatchUUID = match.UUID
	require.NoError(t, w.matches.Upsert(ctx, match))

	_, connA := w.newBoundSession(t, playerA.UUID)
	_, connB := w.newBoundSession(t, playerB.UUID)

	placements, err := mb.ValidatePlacement(rawFleet(), mb.DefaultGridSize)
	require.NoError(t, err)

	// first player locks in: nothing should move yet
	playerA.SetShipPositions(placements, true)
	require.NoError(t, w.players.Upsert(ctx, playerA))

	current, err := w.matches.Get(ctx, match.UUID)
	require.NoError(t, err)
	assert.True(t, current.IsInPhase(mb.MatchPhaseNotReady))

	// second player locks in: the match becomes ready
	playerB.SetShipPositions(placements, true)
	require.NoError(t, w.players.Upsert(ctx, playerB))

	current, err = w.matches.Get(ctx, match.UUID)
	require.NoError(t, err)
	assert.True(t, current.IsInPhase(mb.MatchPhaseAttack))
	assert.True(t, current.IsPlayerTurn(playerA.UUID))
	assert.Equal(t, 1, w.events.starts)

	// both live sessions received a configuration push
	frameA := connA.lastFrame(t)
	assert.Equal(t, mc.MsgTypeConfiguration, frameA.Type)
	frameB := connB.lastFrame(t)
	assert.Equal(t, mc.MsgTypeConfiguration, frameB.Type)
}

// A replayed readiness event after the transition must not reset the
// match or start it twice.
func TestBridgeReadinessRedelivery(t *testing.T) {
	w, bridge := newBridgedWorld(t)
	ctx := context.Background()

	playerA := lockedPlayer(t, "brisk-eel-6")
	playerB := lockedPlayer(t, "dull-crab-1")
	match := mb.NewMatchInstance(playerA.UUID)
	require.NoError(t, match.AddPlayer(playerB.UUID))
	playerA.MatchUUID = match.UUID
	playerB.MatchUUID = match.UUID
	require.NoError(t, w.matches.Upsert(ctx, match))
	require.NoError(t, w.players.Upsert(ctx, playerA))
	require.NoError(t, w.players.Upsert(ctx, playerB))

	current, err := w.matches.Get(ctx, match.UUID)
	require.NoError(t, err)
	require.True(t, current.IsInPhase(mb.MatchPhaseAttack))
	require.Equal(t, 1, w.events.starts)

	// advance the turn, then replay the event
	require.NoError(t, current.ChangeTurn())
	require.NoError(t, w.matches.Upsert(ctx, current))

	bridge.onPlayerChange(store.ChangeEvent{Event: store.EventModify, Key: playerA.UUID})

	after, err := w.matches.Get(ctx, match.UUID)
	require.NoError(t, err)
	assert.True(t, after.IsPlayerTurn(playerB.UUID), "redelivery reset the active player")
	assert.Equal(t, 1, w.events.starts, "match started twice")
}

func TestBridgeIgnoresMidMatchPlayerChanges(t *testing.T) {
	w, bridge := newBridgedWorld(t)
	ctx := context.Background()

	attacker, _, match := seededMatch(t, w)
	require.NoError(t, match.ChangeTurn())
	require.NoError(t, w.matches.Upsert(ctx, match))

	attacker.RecordAttackResult(mb.NewCoordinate(0, 0), mb.AttackResult{Hit: true})
	require.NoError(t, w.players.Upsert(ctx, attacker))

	bridge.onPlayerChange(store.ChangeEvent{Event: store.EventModify, Key: attacker.UUID})

	after, err := w.matches.Get(ctx, match.UUID)
	require.NoError(t, err)
	assert.True(t, after.IsPlayerTurn(match.PlayerB), "mid-match change moved the turn")
}

func TestBridgeMatchChangePushesToParticipants(t *testing.T) {
	w, bridge := newBridgedWorld(t)
	ctx := context.Background()

	playerA, playerB, match := seededMatch(t, w)
	_, connA := w.newBoundSession(t, playerA.UUID)
	_, connB := w.newBoundSession(t, playerB.UUID)

	require.NoError(t, match.ChangeTurn())
	require.NoError(t, w.matches.Upsert(ctx, match))
	bridge.onMatchChange(store.ChangeEvent{Event: store.EventModify, Key: match.UUID})

	frameA := connA.lastFrame(t)
	require.Equal(t, mc.MsgTypeConfiguration, frameA.Type)
	configA := frameA.Data.(mc.PlayerConfiguration)
	assert.Equal(t, playerA.UUID, configA.Player.UUID)
	assert.True(t, configA.Match.IsPlayerTurn(playerB.UUID))

	frameB := connB.lastFrame(t)
	require.Equal(t, mc.MsgTypeConfiguration, frameB.Type)
	configB := frameB.Data.(mc.PlayerConfiguration)
	assert.Equal(t, playerB.UUID, configB.Player.UUID)
}

func TestBridgeGameChangeRefreshes(t *testing.T) {
	w, bridge := newBridgedWorld(t)

	bridge.onGameChange(store.ChangeEvent{Event: store.EventModify, Key: store.GameDataKey})
	assert.Equal(t, 1, w.game.refreshes)

	// unrelated keys on the channel are ignored
	bridge.onGameChange(store.ChangeEvent{Event: store.EventModify, Key: "something-else"})
	assert.Equal(t, 1, w.game.refreshes)
}
