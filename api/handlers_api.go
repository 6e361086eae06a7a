package api

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/saeidalz13/seabattle-backend/internal"
	cerr "github.com/saeidalz13/seabattle-backend/internal/error"
	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
	mc "github.com/saeidalz13/seabattle-backend/models/connection"
)

// playerSpecificData reloads the player, their match and their
// opponent from the shared store. Handlers never trust stale local
// copies since another process may have advanced the match.
func (s *Server) playerSpecificData(ctx context.Context, session *mc.Session) (*mb.Player, *mb.MatchInstance, *mb.Player, error) {
	playerUuid := session.PlayerUuid()
	if playerUuid == "" {
		return nil, nil, nil, cerr.ErrSessionUnbound()
	}

	player, err := s.players.Get(ctx, playerUuid)
	if err != nil {
		return nil, nil, nil, err
	}
	if player == nil {
		return nil, nil, nil, cerr.ErrPlayerNotExist(playerUuid)
	}
	if player.MatchUUID == "" {
		return nil, nil, nil, cerr.ErrPlayerMissingMatch(playerUuid)
	}

	match, err := s.matches.Get(ctx, player.MatchUUID)
	if err != nil {
		return nil, nil, nil, err
	}
	if match == nil {
		return nil, nil, nil, cerr.ErrMatchNotExist(player.MatchUUID)
	}

	var opponent *mb.Player
	if oppUuid := match.OpponentUUID(playerUuid); oppUuid != "" {
		opponent, err = s.players.Get(ctx, oppUuid)
		if err != nil {
			return nil, nil, nil, err
		}
		if opponent == nil {
			return nil, nil, nil, cerr.ErrPlayerNotExist(oppUuid)
		}
	}

	return player, match, opponent, nil
}

// handleConnection either resumes an existing player identity or
// creates a fresh one, then seats the player into a match.
func (s *Server) handleConnection(ctx context.Context, session *mc.Session, raw json.RawMessage) (mc.Response, error) {
	var req mc.ConnectionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, "connection payload is malformed"), nil
	}

	game := s.game.Current()

	var player *mb.Player
	if req.PlayerID != "" && req.GameID == game.UUID {
		existing, err := s.players.Get(ctx, req.PlayerID)
		if err != nil {
			return mc.Response{}, err
		}
		// username must match the stored record, otherwise the id is
		// stale or borrowed and the caller starts over
		if existing != nil && existing.Username == req.Username {
			player = existing
			s.logger.Info("player reconnected",
				zap.String("player", player.UUID),
				zap.String("username", player.Username),
			)
		}
	}

	if player == nil {
		player = mb.NewPlayer(internal.GenerateUsername(), false)
		if err := s.players.Upsert(ctx, player); err != nil {
			return mc.Response{}, err
		}
		s.logger.Info("created new player",
			zap.String("player", player.UUID),
			zap.String("username", player.Username),
		)
	}

	if player.MatchUUID == "" {
		var aiOpponent *mb.Player
		if s.stage == StageProd || req.UseAiOpponent {
			aiOpponent = mb.NewPlayer(internal.GenerateUsername(), true)
		}

		match, err := s.matchmaker.MatchMakeForPlayer(ctx, player, aiOpponent)
		if err != nil {
			return mc.Response{}, err
		}

		player.MatchUUID = match.UUID
		if err := s.players.Upsert(ctx, player); err != nil {
			return mc.Response{}, err
		}

		if aiOpponent != nil {
			aiOpponent.MatchUUID = match.UUID
			if err := s.players.Upsert(ctx, aiOpponent); err != nil {
				return mc.Response{}, err
			}
			s.aiAgent.CreateAgent(ctx, game.UUID, aiOpponent)
		}

		if match.PlayerA == player.UUID {
			s.countAnalytics(s.analytics.IncrementMatchesCreated)
		}
	}

	// reconnection takeover: any older session bound to this player
	// uuid is closed before this one takes the identity
	s.sessionManager.Bind(session, player.UUID)

	match, err := s.matches.Get(ctx, player.MatchUUID)
	if err != nil {
		return mc.Response{}, err
	}
	if match == nil {
		return mc.Response{}, cerr.ErrMatchNotExist(player.MatchUUID)
	}

	var opponent *mb.Player
	if oppUuid := match.OpponentUUID(player.UUID); oppUuid != "" {
		opponent, err = s.players.Get(ctx, oppUuid)
		if err != nil {
			return mc.Response{}, err
		}
	}

	if opponent != nil && !opponent.IsAi {
		s.pushConfiguration(opponent, player, match)
	}

	return mc.NewResponse(mc.MsgTypeConfiguration, mc.NewPlayerConfiguration(game, player, match, opponent)), nil
}

func (s *Server) handleShipPositions(ctx context.Context, session *mc.Session, raw json.RawMessage) (mc.Response, error) {
	var req mc.ShipPositionsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, "ship positions payload is malformed"), nil
	}
	if err := req.Validate(); err != nil {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, err.Error()), nil
	}

	game := s.game.Current()
	if !game.PlacementAllowed() {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, fmt.Sprintf("cannot set ship positions while the game is %q", game.State)), nil
	}

	player, match, opponent, err := s.playerSpecificData(ctx, session)
	if err != nil {
		return mc.Response{}, err
	}

	if player.HasLockedShipPositions() {
		s.logger.Warn("ignoring attempt to change locked ship positions", zap.String("player", player.UUID))
		return mc.NewResponse(mc.MsgTypeConfiguration, mc.NewPlayerConfiguration(game, player, match, opponent)), nil
	}

	placements, verr := mb.ValidatePlacement(req.ToShipData(), s.gridSize)
	if verr != nil {
		s.logger.Warn("rejected invalid ship placement",
			zap.String("player", player.UUID),
			zap.Error(verr),
		)
		// retained so the client can render and correct it, but it
		// never counts as locked in
		player.SetShipPositions(mb.ExpandPositions(req.ToShipData()), false)
	} else {
		player.SetShipPositions(placements, true)
	}

	if err := s.players.Upsert(ctx, player); err != nil {
		return mc.Response{}, err
	}

	return mc.NewResponse(mc.MsgTypeConfiguration, mc.NewPlayerConfiguration(game, player, match, opponent)), nil
}

func (s *Server) handleAttack(ctx context.Context, session *mc.Session, raw json.RawMessage) (mc.Response, error) {
	var req mc.AttackRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, "attack payload is malformed"), nil
	}
	if err := req.Validate(s.gridSize); err != nil {
		return mc.NewInfoResponse(mc.MsgTypeBadAttack, err.Error()), nil
	}

	game := s.game.Current()
	if !game.IsInState(mb.GameStateActive) {
		return mc.NewInfoResponse(mc.MsgTypeBadAttack, fmt.Sprintf("cannot attack while the game is %q", game.State)), nil
	}

	player, match, opponent, err := s.playerSpecificData(ctx, session)
	if err != nil {
		return mc.Response{}, err
	}

	if !match.IsPlayerTurn(player.UUID) {
		return mc.NewInfoResponse(mc.MsgTypeBadAttack, "it is not your turn"), nil
	}
	if !match.IsInPhase(mb.MatchPhaseAttack) {
		return mc.NewInfoResponse(mc.MsgTypeBadAttack, "match is not in its attack phase"), nil
	}
	if opponent == nil {
		return mc.Response{}, cerr.ErrMatchMissingOpponent(match.UUID)
	}
	if player.HasAttackedLocation(req.Origin) {
		return mc.NewInfoResponse(mc.MsgTypeBadAttack, "this position was already attacked"), nil
	}

	result := opponent.DetermineAttackResult(req.Origin)
	player.RecordAttackResult(req.Origin, result)

	gameOver := result.Destroyed && mb.IsGameOverFor(opponent)
	switch {
	case gameOver:
		if err := match.SetWinner(player.UUID); err != nil {
			return mc.Response{}, err
		}
	case result.Destroyed:
		if err := match.StartBonusRound(result.ShipType); err != nil {
			return mc.Response{}, err
		}
	default:
		if err := match.ChangeTurn(); err != nil {
			return mc.Response{}, err
		}
	}

	if err := s.players.Upsert(ctx, player); err != nil {
		return mc.Response{}, err
	}
	if err := s.players.Upsert(ctx, opponent); err != nil {
		return mc.Response{}, err
	}
	if err := s.matches.Upsert(ctx, match); err != nil {
		return mc.Response{}, err
	}

	s.events.ShotFired(match.UUID, player.UUID, opponent.UUID, req.Origin, result, req.Prediction)
	s.countAnalytics(s.analytics.IncrementAttacksProcessed)
	if result.Destroyed {
		s.countAnalytics(s.analytics.IncrementShipsSunk)
	}
	if gameOver {
		s.events.MatchEnd(game.UUID, match)
		s.countAnalytics(s.analytics.IncrementMatchesCompleted)
		s.logger.Info("match finished",
			zap.String("match", match.UUID),
			zap.String("winner", player.UUID),
		)
	}

	shot := mc.NewShotResult(req.Origin, result)

	if oppSession := s.sessionManager.ByPlayerUuid(opponent.UUID); oppSession != nil {
		oppResp := mc.AttackResponse{
			Attacker:            player.UUID,
			Result:              shot,
			PlayerConfiguration: mc.NewPlayerConfiguration(game, opponent, match, player),
		}
		if err := oppSession.Send(mc.MsgTypeAttackResult, oppResp); err != nil {
			s.logger.Warn("attack result push failed", zap.String("player", opponent.UUID), zap.Error(err))
		}
	}

	resp := mc.AttackResponse{
		Attacker:            player.UUID,
		Result:              shot,
		PlayerConfiguration: mc.NewPlayerConfiguration(game, player, match, opponent),
	}
	return mc.NewResponse(mc.MsgTypeAttackResult, resp), nil
}

// handleBonus closes a bonus round. The hit count is advisory, the
// authoritative state change is handing the turn over.
func (s *Server) handleBonus(ctx context.Context, session *mc.Session, raw json.RawMessage) (mc.Response, error) {
	var req mc.BonusRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, "bonus payload is malformed"), nil
	}
	if err := req.Validate(); err != nil {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, err.Error()), nil
	}

	game := s.game.Current()
	if !game.IsInState(mb.GameStateActive) {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, fmt.Sprintf("cannot play a bonus round while the game is %q", game.State)), nil
	}

	player, match, opponent, err := s.playerSpecificData(ctx, session)
	if err != nil {
		return mc.Response{}, err
	}

	if !match.IsPlayerTurn(player.UUID) {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, "it is not your turn"), nil
	}
	if !match.IsInPhase(mb.MatchPhaseBonus) {
		return mc.NewInfoResponse(mc.MsgTypeBadPayload, "match is not in a bonus round"), nil
	}
	if opponent == nil {
		return mc.Response{}, cerr.ErrMatchMissingOpponent(match.UUID)
	}

	s.logger.Info("bonus round completed",
		zap.String("match", match.UUID),
		zap.String("player", player.UUID),
		zap.Int("hits", req.Hits),
	)

	if err := match.ChangeTurn(); err != nil {
		return mc.Response{}, err
	}
	if err := s.matches.Upsert(ctx, match); err != nil {
		return mc.Response{}, err
	}

	if oppSession := s.sessionManager.ByPlayerUuid(opponent.UUID); oppSession != nil {
		oppResp := mc.NewPlayerConfiguration(game, opponent, match, player)
		if err := oppSession.Send(mc.MsgTypeBonusResult, oppResp); err != nil {
			s.logger.Warn("bonus result push failed", zap.String("player", opponent.UUID), zap.Error(err))
		}
	}

	return mc.NewResponse(mc.MsgTypeBonusResult, mc.NewPlayerConfiguration(game, player, match, opponent)), nil
}
