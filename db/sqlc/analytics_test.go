package sqlc

import (
	"context"
	"net"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sqlc-dev/pqtype"
)

func testInet(t *testing.T) pqtype.Inet {
	t.Helper()

	_, ipnet, err := net.ParseCIDR("10.0.0.7/24")
	if err != nil {
		t.Fatal(err)
	}
	return pqtype.Inet{IPNet: *ipnet, Valid: true}
}

func TestAnalyticsIncrements(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	manager := NewDbManager(New(db)).Analytics
	serverIp := testInet(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		query     string
		increment func(context.Context, pqtype.Inet) error
	}{
		{
			name:      "matches created",
			query:     "INSERT INTO game_server_analytics \\(server_ip, matches_created\\)",
			increment: manager.IncrementMatchesCreated,
		},
		{
			name:      "attacks processed",
			query:     "INSERT INTO game_server_analytics \\(server_ip, attacks_processed\\)",
			increment: manager.IncrementAttacksProcessed,
		},
		{
			name:      "ships sunk",
			query:     "INSERT INTO game_server_analytics \\(server_ip, ships_sunk\\)",
			increment: manager.IncrementShipsSunk,
		},
		{
			name:      "matches completed",
			query:     "INSERT INTO game_server_analytics \\(server_ip, matches_completed\\)",
			increment: manager.IncrementMatchesCompleted,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mock.ExpectExec(test.query).
				WithArgs(serverIp).
				WillReturnResult(sqlmock.NewResult(0, 1))

			if err := test.increment(ctx, serverIp); err != nil {
				t.Fatal(err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestAnalyticsCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	manager := NewDbManager(New(db)).Analytics
	serverIp := testInet(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT matches_created FROM game_server_analytics").
		WithArgs(serverIp).
		WillReturnRows(sqlmock.NewRows([]string{"matches_created"}).AddRow(int64(12)))

	created, err := manager.GetMatchesCreatedCount(ctx, serverIp)
	if err != nil {
		t.Fatal(err)
	}
	if created != 12 {
		t.Fatalf("expected 12 matches created\t got: %d", created)
	}

	mock.ExpectQuery("SELECT matches_completed FROM game_server_analytics").
		WithArgs(serverIp).
		WillReturnRows(sqlmock.NewRows([]string{"matches_completed"}).AddRow(int64(4)))

	completed, err := manager.GetMatchesCompletedCount(ctx, serverIp)
	if err != nil {
		t.Fatal(err)
	}
	if completed != 4 {
		t.Fatalf("expected 4 matches completed\t got: %d", completed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
