package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

const matchmakingBatchSize = 50

// MatchCache is the slice of match persistence the matchmaker needs.
// *MatchStore satisfies it; tests substitute an in-memory fake.
type MatchCache interface {
	Upsert(ctx context.Context, match *mb.MatchInstance) error
	ClaimSeat(ctx context.Context, matchUuid, playerUuid string) (*mb.MatchInstance, error)
	Matches(ctx context.Context, batchSize int64) MatchIterator
}

// Matchmaker finds or creates a joinable match for a connecting
// player. The whole search-and-claim sequence runs inside one mutex:
// the scan and the seat write are not atomic against the shared store,
// so without it two in-process callers could both pick the same open
// match. Cross-process callers are excluded by the conditional claim
// in the store instead.
type Matchmaker struct {
	mu      sync.Mutex
	matches MatchCache
	logger  *zap.Logger
}

func NewMatchmaker(matches MatchCache, logger *zap.Logger) *Matchmaker {
	return &Matchmaker{matches: matches, logger: logger}
}

// MatchMakeForPlayer assigns the player a match. When an AI opponent
// has been provisioned by the caller there is nothing to search for: a
// full two-seat match is created directly.
func (mm *Matchmaker) MatchMakeForPlayer(ctx context.Context, player, opponent *mb.Player) (*mb.MatchInstance, error) {
	if opponent != nil {
		mm.logger.Debug("skipping matchmaking search, ai opponent provided",
			zap.String("player", player.UUID),
			zap.String("opponent", opponent.UUID),
		)
		return mm.createMatch(ctx, player.UUID, opponent.UUID)
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.logger.Info("matchmaking for player", zap.String("player", player.UUID))

	it := mm.matches.Matches(ctx, matchmakingBatchSize)
	for {
		candidate, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if !candidate.IsJoinable() {
			continue
		}

		// First fit. The claim can still fail if a peer process won
		// the seat between scan and write; keep searching when it does.
		claimed, err := mm.matches.ClaimSeat(ctx, candidate.UUID, player.UUID)
		if errors.Is(err, ErrSeatTaken) {
			mm.logger.Debug("seat lost to a concurrent claim, continuing scan",
				zap.String("match", candidate.UUID),
				zap.String("player", player.UUID),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		mm.logger.Info("added player to existing match",
			zap.String("player", player.UUID),
			zap.String("match", claimed.UUID),
		)
		return claimed, nil
	}

	match, err := mm.createMatch(ctx, player.UUID, "")
	if err != nil {
		return nil, err
	}

	mm.logger.Info("no open match found, created new match instance",
		zap.String("player", player.UUID),
		zap.String("match", match.UUID),
	)
	return match, nil
}

func (mm *Matchmaker) createMatch(ctx context.Context, playerA, playerB string) (*mb.MatchInstance, error) {
	match := mb.NewMatchInstance(playerA)
	if playerB != "" {
		if err := match.AddPlayer(playerB); err != nil {
			return nil, err
		}
	}

	if err := mm.matches.Upsert(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}
