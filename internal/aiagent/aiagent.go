// Package aiagent provisions AI opponent agents over HTTP. Calls are
// fire-and-forget; an unreachable agent server degrades the experience
// but never fails a handler.
package aiagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

const requestTimeout = time.Second * 5

type Client struct {
	baseUrl string
	httpc   *http.Client
	logger  *zap.Logger
}

// NewClient creates an agent client. An empty baseUrl disables
// provisioning entirely.
func NewClient(baseUrl string, logger *zap.Logger) *Client {
	return &Client{
		baseUrl: baseUrl,
		httpc:   &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

type createAgentRequest struct {
	GameId   string `json:"gameId"`
	Uuid     string `json:"uuid"`
	Username string `json:"username"`
}

// CreateAgent asks the agent server to instantiate a bot for the given
// AI player. Failures are logged and swallowed.
func (c *Client) CreateAgent(ctx context.Context, gameUuid string, opponent *mb.Player) {
	if c.baseUrl == "" {
		return
	}

	payload, err := json.Marshal(createAgentRequest{
		GameId:   gameUuid,
		Uuid:     opponent.UUID,
		Username: opponent.Username,
	})
	if err != nil {
		c.logger.Error("marshaling agent request", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("building agent request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("ai agent server unreachable", zap.String("player", opponent.UUID), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		c.logger.Warn("ai agent server rejected provisioning",
			zap.String("player", opponent.UUID),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)),
		)
	}
}
