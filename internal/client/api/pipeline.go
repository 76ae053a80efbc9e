package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

const refreshPath = "/auth/refresh-token"

// TokenStore is the part of the session store the pipeline needs.
// *session.Store implements it.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(ctx context.Context, token string) bool
	Clear(ctx context.Context)
}

// State is a step of the per-call authentication state machine
type State int

const (
	StateInitial State = iota
	StateRefreshing
	StateRetrying
	StateFailed
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateRefreshing:
		return "REFRESHING"
	case StateRetrying:
		return "RETRYING"
	case StateFailed:
		return "FAILED"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// call is the FSM record of one logical request
type call struct {
	req *Request
	// original holds the 401 that triggered the refresh
	original *Response
	resp     *Response
	err      error
	id       string
	token    string
	state    State
}

// Pipeline sends requests with the bearer token attached and recovers
// from an expired access token with one refresh and one replay.
type Pipeline struct {
	httpClient   *http.Client
	tokens       TokenStore
	logger       *slog.Logger
	refreshGroup singleflight.Group
	baseURL      string
	userAgent    string
	coalesce     bool
}

// NewPipeline creates a pipeline for baseURL
func NewPipeline(baseURL string, tokens TokenStore, opts ...Option) *Pipeline {
	o := buildOptions(opts)

	return &Pipeline{
		httpClient: o.httpClient,
		tokens:     tokens,
		logger:     o.logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  o.userAgent,
		coalesce:   o.coalesceRefresh,
	}
}

// Do runs req through the state machine. Network errors are returned as is.
// Non-2xx responses are returned without error, a response produced by
// session teardown has SessionCleared set.
func (p *Pipeline) Do(ctx context.Context, req *Request) (*Response, error) {
	c := &call{
		req:   req,
		id:    uuid.NewString(),
		state: StateInitial,
	}

	for c.state != StateDone {
		next := p.step(ctx, c)
		p.logger.DebugContext(ctx, "request state",
			slog.String("request_id", c.id),
			slog.String("path", req.Path),
			slog.String("from", c.state.String()),
			slog.String("to", next.String()),
		)
		c.state = next
	}

	return c.resp, c.err
}

func (p *Pipeline) step(ctx context.Context, c *call) State {
	switch c.state {
	case StateInitial:
		resp, err := p.send(ctx, c, p.tokens.AccessToken())
		if err != nil {
			c.err = err
			return StateDone
		}
		if resp.StatusCode == http.StatusUnauthorized && !c.req.NoRefresh {
			c.original = resp
			return StateRefreshing
		}
		c.resp = resp
		return StateDone

	case StateRefreshing:
		refreshToken := p.tokens.RefreshToken()
		if refreshToken == "" {
			return StateFailed
		}

		token, err := p.refresh(ctx, refreshToken)
		if err != nil {
			// отмена вызывающей стороной не является отказом сервера
			if ctx.Err() != nil {
				c.err = ctx.Err()
				return StateDone
			}
			p.logger.WarnContext(ctx, "token refresh failed",
				slog.String("request_id", c.id),
				slog.Any("error", err),
			)
			return StateFailed
		}

		// сессию могли очистить, пока шло обновление
		if !p.tokens.SetAccessToken(ctx, token) {
			return StateFailed
		}
		c.token = token
		return StateRetrying

	case StateRetrying:
		resp, err := p.send(ctx, c, c.token)
		if err != nil {
			c.err = err
			return StateDone
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.original = resp
			return StateFailed
		}
		c.resp = resp
		return StateDone

	case StateFailed:
		p.tokens.Clear(ctx)
		resp := *c.original
		resp.SessionCleared = true
		c.resp = &resp
		return StateDone
	}

	return StateDone
}

func (p *Pipeline) send(ctx context.Context, c *call, token string) (*Response, error) {
	var body io.Reader
	if c.req.Body != nil {
		body = bytes.NewReader(c.req.Body)
	}

	target := p.baseURL + c.req.Path
	if len(c.req.Query) > 0 {
		target += "?" + c.req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, c.req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range c.req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if c.req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", c.id)
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return p.roundTrip(httpReq)
}

func (p *Pipeline) roundTrip(httpReq *http.Request) (*Response, error) {
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (p *Pipeline) refresh(ctx context.Context, refreshToken string) (string, error) {
	if !p.coalesce {
		return p.doRefresh(ctx, refreshToken)
	}

	// общий вызов не должен зависеть от отмены контекста первого участника
	shared := context.WithoutCancel(ctx)
	ch := p.refreshGroup.DoChan(refreshToken, func() (any, error) {
		return p.doRefresh(shared, refreshToken)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// doRefresh exchanges the refresh token. It bypasses the state machine.
func (p *Pipeline) doRefresh(ctx context.Context, refreshToken string) (string, error) {
	data, err := json.Marshal(pkgapi.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+refreshPath, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.roundTrip(httpReq)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", newAPIError(resp)
	}

	result, err := decodeEnvelope[pkgapi.RefreshTokenData](resp)
	if err != nil {
		return "", err
	}

	return result.Data.AccessToken, nil
}
