package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

const analyticsIncrementMatchesCreated = `
INSERT INTO game_server_analytics (server_ip, matches_created)
VALUES ($1, 1)
ON CONFLICT (server_ip)
DO UPDATE SET matches_created = game_server_analytics.matches_created + 1
`

func (q *Queries) AnalyticsIncrementMatchesCreated(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, analyticsIncrementMatchesCreated, serverIp)
	return err
}

const analyticsIncrementAttacksProcessed = `
INSERT INTO game_server_analytics (server_ip, attacks_processed)
VALUES ($1, 1)
ON CONFLICT (server_ip)
DO UPDATE SET attacks_processed = game_server_analytics.attacks_processed + 1
`

func (q *Queries) AnalyticsIncrementAttacksProcessed(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, analyticsIncrementAttacksProcessed, serverIp)
	return err
}

const analyticsIncrementShipsSunk = `
INSERT INTO game_server_analytics (server_ip, ships_sunk)
VALUES ($1, 1)
ON CONFLICT (server_ip)
DO UPDATE SET ships_sunk = game_server_analytics.ships_sunk + 1
`

func (q *Queries) AnalyticsIncrementShipsSunk(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, analyticsIncrementShipsSunk, serverIp)
	return err
}

const analyticsIncrementMatchesCompleted = `
INSERT INTO game_server_analytics (server_ip, matches_completed)
VALUES ($1, 1)
ON CONFLICT (server_ip)
DO UPDATE SET matches_completed = game_server_analytics.matches_completed + 1
`

func (q *Queries) AnalyticsIncrementMatchesCompleted(ctx context.Context, serverIp pqtype.Inet) error {
	_, err := q.db.ExecContext(ctx, analyticsIncrementMatchesCompleted, serverIp)
	return err
}

const analyticsGetMatchesCreated = `
SELECT matches_created FROM game_server_analytics WHERE server_ip = $1
`

func (q *Queries) AnalyticsGetMatchesCreated(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, analyticsGetMatchesCreated, serverIp)
	var matchesCreated int64
	err := row.Scan(&matchesCreated)
	return matchesCreated, err
}

const analyticsGetMatchesCompleted = `
SELECT matches_completed FROM game_server_analytics WHERE server_ip = $1
`

func (q *Queries) AnalyticsGetMatchesCompleted(ctx context.Context, serverIp pqtype.Inet) (int64, error) {
	row := q.db.QueryRowContext(ctx, analyticsGetMatchesCompleted, serverIp)
	var matchesCompleted int64
	err := row.Scan(&matchesCompleted)
	return matchesCompleted, err
}
