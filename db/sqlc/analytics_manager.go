package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

type AnalyticsManager struct {
	queries Querier
}

func NewAnalyticsManager(queries Querier) *AnalyticsManager {
	return &AnalyticsManager{queries: queries}
}

func (a *AnalyticsManager) IncrementMatchesCreated(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementMatchesCreated(ctx, serverIpNet)
}

func (a *AnalyticsManager) IncrementAttacksProcessed(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementAttacksProcessed(ctx, serverIpNet)
}

func (a *AnalyticsManager) IncrementShipsSunk(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementShipsSunk(ctx, serverIpNet)
}

func (a *AnalyticsManager) IncrementMatchesCompleted(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementMatchesCompleted(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetMatchesCreatedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.AnalyticsGetMatchesCreated(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetMatchesCompletedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.AnalyticsGetMatchesCompleted(ctx, serverIpNet)
}
