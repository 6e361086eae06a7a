package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

type Querier interface {
	AnalyticsIncrementMatchesCreated(ctx context.Context, serverIp pqtype.Inet) error
	AnalyticsIncrementAttacksProcessed(ctx context.Context, serverIp pqtype.Inet) error
	AnalyticsIncrementShipsSunk(ctx context.Context, serverIp pqtype.Inet) error
	AnalyticsIncrementMatchesCompleted(ctx context.Context, serverIp pqtype.Inet) error
	AnalyticsGetMatchesCreated(ctx context.Context, serverIp pqtype.Inet) (int64, error)
	AnalyticsGetMatchesCompleted(ctx context.Context, serverIp pqtype.Inet) (int64, error)
}

var _ Querier = (*Queries)(nil)
