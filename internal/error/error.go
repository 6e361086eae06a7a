package error

import "fmt"

func ErrPlayerNotExist(playerUuid string) error {
	return fmt.Errorf("player with this uuid does not exist, uuid: %s", playerUuid)
}

func ErrMatchNotExist(matchUuid string) error {
	return fmt.Errorf("match with this uuid does not exist, uuid: %s", matchUuid)
}

func ErrMatchSeatTaken(matchUuid string) error {
	return fmt.Errorf("second seat of this match is already filled, uuid: %s", matchUuid)
}

func ErrMatchMissingOpponent(matchUuid string) error {
	return fmt.Errorf("match has no second player yet, uuid: %s", matchUuid)
}

func ErrMatchNotReady(matchUuid string) error {
	return fmt.Errorf("match has not started its attack phase, uuid: %s", matchUuid)
}

func ErrMatchFinished(matchUuid string) error {
	return fmt.Errorf("match is finished and accepts no transitions, uuid: %s", matchUuid)
}

func ErrPlayerMissingMatch(playerUuid string) error {
	return fmt.Errorf("player is not assigned to any match, uuid: %s", playerUuid)
}

func ErrSessionUnbound() error {
	return fmt.Errorf("no player is bound to this session; a connection message must be sent first")
}

func ErrGameDataMissing(key string) error {
	return fmt.Errorf("game configuration was missing from the shared store, key: %s", key)
}
