package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saeidalz13/seabattle-backend/api"
	"github.com/saeidalz13/seabattle-backend/db"
	"github.com/saeidalz13/seabattle-backend/db/sqlc"
	"github.com/saeidalz13/seabattle-backend/internal/aiagent"
	"github.com/saeidalz13/seabattle-backend/internal/events"
	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
	mc "github.com/saeidalz13/seabattle-backend/models/connection"
	"github.com/saeidalz13/seabattle-backend/store"
)

const defaultIdleTimeout = time.Minute * 20

func main() {
	stage := os.Getenv("STAGE")
	if stage != api.StageProd {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file loaded:", err)
		}
		stage = os.Getenv("STAGE")
	}
	if stage != api.StageDev && stage != api.StageProd {
		panic("STAGE must be either dev or prod")
	}

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		panic("PORT must be a valid integer")
	}

	var logger *zap.Logger
	if stage == api.StageDev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	gridSize := mb.DefaultGridSize
	if v := os.Getenv("GAME_GRID_SIZE"); v != "" {
		gridSize, err = strconv.Atoi(v)
		if err != nil || gridSize < 1 {
			panic("GAME_GRID_SIZE must be a positive integer")
		}
	}

	idleTimeout := defaultIdleTimeout
	if v := os.Getenv("WS_IDLE_TIMEOUT"); v != "" {
		idleTimeout, err = time.ParseDuration(v)
		if err != nil {
			panic("WS_IDLE_TIMEOUT must be a valid duration, e.g. 20m")
		}
	}

	ctx := context.Background()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("redis at %s is unreachable: %v", redisAddr, err))
	}

	playerStore := store.NewPlayerStore(rdb, logger)
	matchStore := store.NewMatchStore(rdb, logger)
	gameStore := store.NewGameStore(rdb, logger)
	if err := gameStore.Load(ctx); err != nil {
		panic(err)
	}
	matchmaker := store.NewMatchmaker(matchStore, logger)

	var publisher events.Publisher = events.NoopPublisher{}
	if natsUrl := os.Getenv("NATS_URL"); natsUrl != "" {
		np, err := events.Connect(natsUrl, logger)
		if err != nil {
			logger.Warn("nats is unreachable, game events disabled", zap.Error(err))
		} else {
			defer np.Close()
			publisher = np
		}
	}

	var analytics *sqlc.AnalyticsManager
	if dbUrl := os.Getenv("DATABASE_URL"); dbUrl != "" {
		psqlDb := db.MustConnectToDb(dbUrl)
		analytics = sqlc.NewDbManager(sqlc.New(psqlDb)).Analytics
		logger.Info("analytics database connected")
	}

	aiAgent := aiagent.NewClient(os.Getenv("AI_AGENT_URL"), logger)
	sessionManager := mc.NewSessionManager(idleTimeout, logger)

	server := api.NewServer(
		stage,
		gridSize,
		logger,
		sessionManager,
		playerStore,
		matchStore,
		gameStore,
		matchmaker,
		publisher,
		aiAgent,
		analytics,
	)

	bridge := api.NewStoreChangeBridge(logger, sessionManager, playerStore, matchStore, gameStore, publisher)
	bridge.Start(ctx)

	go sessionManager.RunIdleEviction(ctx)
	go sessionManager.RunHeartbeat(ctx)

	mux := http.NewServeMux()
	mux.Handle("GET /game", server)

	logger.Info("server starting",
		zap.Int("port", port),
		zap.String("stage", stage),
		zap.String("game", gameStore.Current().UUID),
	)
	log.Fatalln(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux))
}
