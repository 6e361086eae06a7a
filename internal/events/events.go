// Package events publishes game lifecycle events to NATS. Publication
// is fire-and-forget: a failed or absent broker never blocks game
// progress.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

const (
	subjectMatchStart = "seabattle.match.start"
	subjectHit        = "seabattle.attack.hit"
	subjectMiss       = "seabattle.attack.miss"
	subjectSink       = "seabattle.attack.sink"
	subjectMatchEnd   = "seabattle.match.end"
)

type Publisher interface {
	MatchStart(gameUuid string, match *mb.MatchInstance, playerA, playerB *mb.Player)
	ShotFired(matchUuid, by, against string, origin mb.Coordinate, result mb.AttackResult, prediction json.RawMessage)
	MatchEnd(gameUuid string, match *mb.MatchInstance)
}

type matchStartEvent struct {
	Ts      int64            `json:"ts"`
	Game    string           `json:"game"`
	Match   string           `json:"match"`
	PlayerA matchStartPlayer `json:"playerA"`
	PlayerB matchStartPlayer `json:"playerB"`
}

type matchStartPlayer struct {
	Uuid     string `json:"uuid"`
	Username string `json:"username"`
	Human    bool   `json:"human"`
}

type shotEvent struct {
	Ts         int64           `json:"ts"`
	Match      string          `json:"match"`
	By         string          `json:"by"`
	Against    string          `json:"against"`
	Origin     mb.Coordinate   `json:"origin"`
	Hit        bool            `json:"hit"`
	Destroyed  bool            `json:"destroyed,omitempty"`
	ShipType   mb.ShipType     `json:"type,omitempty"`
	Prediction json.RawMessage `json:"prediction,omitempty"`
}

type matchEndEvent struct {
	Ts     int64  `json:"ts"`
	Game   string `json:"game"`
	Match  string `json:"match"`
	Winner string `json:"winner"`
}

// NatsPublisher publishes events to a NATS connection.
type NatsPublisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

var _ Publisher = (*NatsPublisher)(nil)

func Connect(url string, logger *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("seabattle-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second*2),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to nats", zap.String("url", url))
	return &NatsPublisher{nc: nc, logger: logger}, nil
}

func (np *NatsPublisher) publish(subject string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		np.logger.Error("marshaling event", zap.String("subject", subject), zap.Error(err))
		return
	}

	if err := np.nc.Publish(subject, data); err != nil {
		np.logger.Warn("publishing event", zap.String("subject", subject), zap.Error(err))
	}
}

func (np *NatsPublisher) MatchStart(gameUuid string, match *mb.MatchInstance, playerA, playerB *mb.Player) {
	np.publish(subjectMatchStart, matchStartEvent{
		Ts:      time.Now().UnixMilli(),
		Game:    gameUuid,
		Match:   match.UUID,
		PlayerA: matchStartPlayer{Uuid: playerA.UUID, Username: playerA.Username, Human: !playerA.IsAi},
		PlayerB: matchStartPlayer{Uuid: playerB.UUID, Username: playerB.Username, Human: !playerB.IsAi},
	})
}

func (np *NatsPublisher) ShotFired(matchUuid, by, against string, origin mb.Coordinate, result mb.AttackResult, prediction json.RawMessage) {
	subject := subjectMiss
	if result.Destroyed {
		subject = subjectSink
	} else if result.Hit {
		subject = subjectHit
	}

	np.publish(subject, shotEvent{
		Ts:         time.Now().UnixMilli(),
		Match:      matchUuid,
		By:         by,
		Against:    against,
		Origin:     origin,
		Hit:        result.Hit,
		Destroyed:  result.Destroyed,
		ShipType:   result.ShipType,
		Prediction: prediction,
	})
}

func (np *NatsPublisher) MatchEnd(gameUuid string, match *mb.MatchInstance) {
	np.publish(subjectMatchEnd, matchEndEvent{
		Ts:     time.Now().UnixMilli(),
		Game:   gameUuid,
		Match:  match.UUID,
		Winner: match.Winner,
	})
}

func (np *NatsPublisher) Close() {
	np.nc.Drain()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) MatchStart(string, *mb.MatchInstance, *mb.Player, *mb.Player) {}
func (NoopPublisher) ShotFired(string, string, string, mb.Coordinate, mb.AttackResult, json.RawMessage) {
}
func (NoopPublisher) MatchEnd(string, *mb.MatchInstance) {}
