package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/saeidalz13/seabattle-backend/internal/events"
	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
	mc "github.com/saeidalz13/seabattle-backend/models/connection"
	"github.com/saeidalz13/seabattle-backend/store"
)

const bridgeOpTimeout = time.Second * 5

// StoreChangeBridge reacts to change events published by the shared
// store and forwards the resulting state to live local sessions. This
// is how a player learns about progress made on another process.
type StoreChangeBridge struct {
	logger         *zap.Logger
	sessionManager *mc.SessionManager
	players        PlayerStore
	matches        MatchStore
	game           GameStore
	events         events.Publisher
}

func NewStoreChangeBridge(
	logger *zap.Logger,
	sessionManager *mc.SessionManager,
	players PlayerStore,
	matches MatchStore,
	game GameStore,
	publisher events.Publisher,
) *StoreChangeBridge {
	return &StoreChangeBridge{
		logger:         logger,
		sessionManager: sessionManager,
		players:        players,
		matches:        matches,
		game:           game,
		events:         publisher,
	}
}

func (b *StoreChangeBridge) Start(ctx context.Context) {
	b.players.Subscribe(ctx, b.onPlayerChange)
	b.matches.Subscribe(ctx, b.onMatchChange)
	b.game.Subscribe(ctx, b.onGameChange)
}

// onPlayerChange watches for the moment both seats of a not-ready
// match have locked ship positions and flips it to its attack phase.
// Every process sees the same event; the phase guard makes the
// transition idempotent across redeliveries and racing processes.
func (b *StoreChangeBridge) onPlayerChange(ev store.ChangeEvent) {
	if ev.Event != store.EventModify {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), bridgeOpTimeout)
	defer cancel()

	player, err := b.players.Get(ctx, ev.Key)
	if err != nil {
		b.logger.Error("loading changed player", zap.String("player", ev.Key), zap.Error(err))
		return
	}
	if player == nil || player.MatchUUID == "" {
		return
	}
	// mid-match updates (attack records) are not readiness changes
	if player.HasAttacked() {
		return
	}

	match, err := b.matches.Get(ctx, player.MatchUUID)
	if err != nil {
		b.logger.Error("loading match for changed player", zap.String("match", player.MatchUUID), zap.Error(err))
		return
	}
	if match == nil || !match.IsInPhase(mb.MatchPhaseNotReady) {
		return
	}

	oppUuid := match.OpponentUUID(player.UUID)
	if oppUuid == "" {
		return
	}
	opponent, err := b.players.Get(ctx, oppUuid)
	if err != nil {
		b.logger.Error("loading opponent for changed player", zap.String("player", oppUuid), zap.Error(err))
		return
	}
	if opponent == nil {
		return
	}

	if !player.HasLockedShipPositions() || !opponent.HasLockedShipPositions() {
		return
	}

	if !match.SetMatchReady() {
		return
	}
	if err := b.matches.Upsert(ctx, match); err != nil {
		b.logger.Error("persisting ready match", zap.String("match", match.UUID), zap.Error(err))
		return
	}

	b.logger.Info("match is ready", zap.String("match", match.UUID))
	b.events.MatchStart(b.game.Current().UUID, match, player, opponent)

	b.push(player, opponent, match)
	b.push(opponent, player, match)
}

// onMatchChange mirrors remote match mutations to both participants'
// live sessions on this process.
func (b *StoreChangeBridge) onMatchChange(ev store.ChangeEvent) {
	if ev.Event != store.EventModify {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), bridgeOpTimeout)
	defer cancel()

	match, err := b.matches.Get(ctx, ev.Key)
	if err != nil {
		b.logger.Error("loading changed match", zap.String("match", ev.Key), zap.Error(err))
		return
	}
	if match == nil {
		return
	}

	playerA, err := b.players.Get(ctx, match.PlayerA)
	if err != nil || playerA == nil {
		return
	}

	var playerB *mb.Player
	if match.PlayerB != "" {
		playerB, err = b.players.Get(ctx, match.PlayerB)
		if err != nil {
			return
		}
	}

	b.push(playerA, playerB, match)
	if playerB != nil {
		b.push(playerB, playerA, match)
	}
}

// onGameChange reloads the cached game configuration when the shared
// record behind it is rewritten.
func (b *StoreChangeBridge) onGameChange(ev store.ChangeEvent) {
	if ev.Key != store.GameDataKey {
		return
	}
	if ev.Event != store.EventModify && ev.Event != store.EventCreate {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), bridgeOpTimeout)
	defer cancel()

	if err := b.game.Refresh(ctx); err != nil {
		b.logger.Error("refreshing game configuration", zap.Error(err))
		return
	}
	b.logger.Info("game configuration refreshed", zap.String("state", string(b.game.Current().State)))
}

func (b *StoreChangeBridge) push(to, other *mb.Player, match *mb.MatchInstance) {
	if to.IsAi {
		return
	}
	session := b.sessionManager.ByPlayerUuid(to.UUID)
	if session == nil {
		return
	}

	config := mc.NewPlayerConfiguration(b.game.Current(), to, match, other)
	if err := session.Send(mc.MsgTypeConfiguration, config); err != nil {
		b.logger.Warn("configuration push failed", zap.String("player", to.UUID), zap.Error(err))
	}
}
