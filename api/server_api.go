package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sqlc-dev/pqtype"
	"go.uber.org/zap"

	"github.com/saeidalz13/seabattle-backend/db/sqlc"
	"github.com/saeidalz13/seabattle-backend/internal/aiagent"
	"github.com/saeidalz13/seabattle-backend/internal/events"
	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
	mc "github.com/saeidalz13/seabattle-backend/models/connection"
	"github.com/saeidalz13/seabattle-backend/store"
)

const (
	StageProd = "prod"
	StageDev  = "dev"
)

var upgrader = websocket.Upgrader{
	// good average time since this is not a high-latency operation such as video streaming
	HandshakeTimeout: time.Second * 5,

	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PlayerStore, MatchStore, GameStore and Matchmaker are the slices of
// the shared-store layer the handlers depend on. The concrete store
// types satisfy them; tests substitute in-memory fakes.
type PlayerStore interface {
	Get(ctx context.Context, playerUuid string) (*mb.Player, error)
	Upsert(ctx context.Context, player *mb.Player) error
	Subscribe(ctx context.Context, handler store.ChangeHandler)
}

type MatchStore interface {
	Get(ctx context.Context, matchUuid string) (*mb.MatchInstance, error)
	Upsert(ctx context.Context, match *mb.MatchInstance) error
	Subscribe(ctx context.Context, handler store.ChangeHandler)
}

type GameStore interface {
	Current() *mb.GameConfiguration
	Refresh(ctx context.Context) error
	Subscribe(ctx context.Context, handler store.ChangeHandler)
}

type Matchmaker interface {
	MatchMakeForPlayer(ctx context.Context, player, opponent *mb.Player) (*mb.MatchInstance, error)
}

var (
	_ PlayerStore = (*store.PlayerStore)(nil)
	_ MatchStore  = (*store.MatchStore)(nil)
	_ GameStore   = (*store.GameStore)(nil)
	_ Matchmaker  = (*store.Matchmaker)(nil)
)

type handlerFunc func(ctx context.Context, session *mc.Session, raw json.RawMessage) (mc.Response, error)

// Server upgrades connections, wraps each one in a session, and routes
// inbound messages to handlers by their type tag.
type Server struct {
	stage    string
	gridSize int
	logger   *zap.Logger

	sessionManager *mc.SessionManager
	players        PlayerStore
	matches        MatchStore
	game           GameStore
	matchmaker     Matchmaker
	events         events.Publisher
	aiAgent        *aiagent.Client

	analytics   *sqlc.AnalyticsManager
	serverIpNet pqtype.Inet

	handlers map[string]handlerFunc
}

func NewServer(
	stage string,
	gridSize int,
	logger *zap.Logger,
	sessionManager *mc.SessionManager,
	players PlayerStore,
	matches MatchStore,
	game GameStore,
	matchmaker Matchmaker,
	publisher events.Publisher,
	aiAgent *aiagent.Client,
	analytics *sqlc.AnalyticsManager,
) *Server {
	s := &Server{
		stage:          stage,
		gridSize:       gridSize,
		logger:         logger,
		sessionManager: sessionManager,
		players:        players,
		matches:        matches,
		game:           game,
		matchmaker:     matchmaker,
		events:         publisher,
		aiAgent:        aiAgent,
		analytics:      analytics,
	}

	if s.analytics != nil {
		s.serverIpNet = pqtype.Inet{IPNet: mustGetServerIpNet(), Valid: true}
	}

	s.handlers = map[string]handlerFunc{
		mc.MsgTypeConnection:    s.handleConnection,
		mc.MsgTypeShipPositions: s.handleShipPositions,
		mc.MsgTypeAttack:        s.handleAttack,
		mc.MsgTypeBonus:         s.handleBonus,
	}
	return s
}

func mustGetServerIpNet() net.IPNet {
	ifaces, err := net.Interfaces()
	if err != nil {
		panic(err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			panic(err)
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipnet.IP.To4() != nil && !ipnet.IP.IsLoopback() {
				return *ipnet
			}
		}
	}

	panic("ipnet could not be found!")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		http.Error(w, "could not open websocket connection", http.StatusBadRequest)
		return
	}

	session := mc.NewSession(conn, s.dispatch, s.logger, s.stage == StageDev)
	s.sessionManager.Add(session)
	s.logger.Info("a new connection established",
		zap.String("session", session.Id()),
		zap.String("remoteAddr", conn.RemoteAddr().String()),
	)

	go s.manageSession(session, conn)
}

func (s *Server) manageSession(session *mc.Session, conn *websocket.Conn) {
	defer func() {
		s.sessionManager.Remove(session)
		session.Close()
		s.logger.Info("connection closed",
			zap.String("session", session.Id()),
			zap.String("player", session.PlayerUuid()),
		)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Warn("reading from connection", zap.String("session", session.Id()), zap.Error(err))
			}
			// whatever else is not really an error. would be normal closure
			break
		}

		session.ProcessMessage(context.Background(), payload)
	}
}

// dispatch routes one parsed envelope to its handler. Unknown types
// are a protocol violation, not an internal failure.
func (s *Server) dispatch(ctx context.Context, session *mc.Session, msg mc.IncomingMessage) (mc.Response, error) {
	handler, prs := s.handlers[msg.Type]
	if !prs {
		return mc.NewInfoResponse(mc.MsgTypeBadMessageType, "\""+msg.Type+"\" is an unrecognised message type"), nil
	}
	return handler(ctx, session, msg.Data)
}

// countAnalytics runs a counter update off the handler path. A missing
// or failing analytics database never blocks game progress.
func (s *Server) countAnalytics(update func(context.Context, pqtype.Inet) error) {
	if s.analytics == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
		defer cancel()

		if err := update(ctx, s.serverIpNet); err != nil {
			s.logger.Warn("analytics update failed", zap.Error(err))
		}
	}()
}

// pushConfiguration sends a fresh state snapshot to a player's live
// session, if one exists on this process.
func (s *Server) pushConfiguration(to, other *mb.Player, match *mb.MatchInstance) {
	session := s.sessionManager.ByPlayerUuid(to.UUID)
	if session == nil {
		s.logger.Debug("no live session for configuration push", zap.String("player", to.UUID))
		return
	}

	config := mc.NewPlayerConfiguration(s.game.Current(), to, match, other)
	if err := session.Send(mc.MsgTypeConfiguration, config); err != nil {
		s.logger.Warn("configuration push failed", zap.String("player", to.UUID), zap.Error(err))
	}
}
