// Package leaderboard reads legend league rankings from the game statistics API.
package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"base_gallery/internal/apperror"
	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/metrics"
)

type Client struct {
	log     *slog.Logger
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client rooted at apiURL + "/leaderboard".
func New(log *slog.Logger, apiURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		log:     log,
		baseURL: strings.TrimRight(apiURL, "/") + "/leaderboard",
		token:   token,
		http:    httpClient,
	}
}

type PageParams struct {
	Limit  int
	Before string
	After  string
}

// Global returns the global legend league ranking.
func (c *Client) Global(ctx context.Context) (*models.Leaderboard, error) {
	const op = "client.leaderboard.Global"

	body, err := c.get(ctx, "/legend/global", "/legend/global", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Data []models.LeaderboardPlayer `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperror.Shape(err.Error()))
	}

	return &models.Leaderboard{Success: true, Items: nonNil(resp.Data)}, nil
}

// Local returns the ranking of one location. The upstream answers either
// with a bare array or with an items object.
func (c *Client) Local(ctx context.Context, locationID string) (*models.Leaderboard, error) {
	const op = "client.leaderboard.Local"

	if strings.TrimSpace(locationID) == "" {
		return nil, fmt.Errorf("%s: %w", op, apperror.Validation("location id is required"))
	}

	body, err := c.get(ctx, "/legend/local/:location_id", "/legend/local/"+url.PathEscape(locationID), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var players []models.LeaderboardPlayer
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &players)
	} else {
		var resp struct {
			Items []models.LeaderboardPlayer `json:"items"`
		}
		err = json.Unmarshal(trimmed, &resp)
		players = resp.Items
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperror.Shape(err.Error()))
	}

	return &models.Leaderboard{Success: true, Items: nonNil(players)}, nil
}

// Page returns a cursor-paginated slice of the ranking.
func (c *Client) Page(ctx context.Context, params PageParams) (*models.Leaderboard, error) {
	const op = "client.leaderboard.Page"

	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Before != "" {
		query.Set("before", params.Before)
	}
	if params.After != "" {
		query.Set("after", params.After)
	}

	body, err := c.get(ctx, "", "", query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp models.Leaderboard
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperror.Shape(err.Error()))
	}
	resp.Items = nonNil(resp.Items)

	return &resp, nil
}

func (c *Client) get(ctx context.Context, route, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperror.Network(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	metricRoute := "/leaderboard" + route

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ClientRequestDuration.WithLabelValues(http.MethodGet, metricRoute).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(http.MethodGet, metricRoute, "error").Inc()
		c.log.Error("leaderboard request failed", slog.String("route", metricRoute), sl.Err(err))
		return nil, apperror.Network(err)
	}
	defer resp.Body.Close()

	metrics.ClientRequestsTotal.WithLabelValues(http.MethodGet, metricRoute, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, apperror.Network(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &errBody)

		c.log.Error("leaderboard request rejected",
			slog.String("route", metricRoute),
			slog.Int("status", resp.StatusCode),
			slog.String("message", errBody.Message),
		)
		return nil, apperror.FromStatus(resp.StatusCode, errBody.Message)
	}

	return body, nil
}

func nonNil(players []models.LeaderboardPlayer) []models.LeaderboardPlayer {
	if players == nil {
		return []models.LeaderboardPlayer{}
	}
	return players
}
