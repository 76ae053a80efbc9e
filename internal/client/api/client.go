package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

// Client is the typed newscoin API client. Every call goes through the
// Pipeline, so an expired access token is refreshed transparently.
type Client struct {
	pipeline *Pipeline
}

// NewClient создает новый API клиент
func NewClient(baseURL string, tokens TokenStore, opts ...Option) *Client {
	return &Client{pipeline: NewPipeline(baseURL, tokens, opts...)}
}

// Pipeline returns the request pipeline used by the client
func (c *Client) Pipeline() *Pipeline {
	return c.pipeline
}

type validatable interface {
	Validate() error
}

// credentialPaths принимают логин/пароль или код, их 401 не про access token
var credentialPaths = map[string]bool{
	"/auth/register":            true,
	"/auth/verify-email":        true,
	"/auth/resend-verification": true,
	"/auth/login":               true,
	"/auth/google":              true,
}

// do sends the request and returns the 2xx response or an *APIError
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	req, err := NewRequest(method, path, query, body)
	if err != nil {
		return nil, err
	}
	req.NoRefresh = credentialPaths[path]

	resp, err := c.pipeline.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError(resp)
	}

	return resp, nil
}

func decodeEnvelope[T any](resp *Response) (*pkgapi.Envelope[T], error) {
	var env pkgapi.Envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !env.Success {
		// 2xx с success=false трактуем как отказ сервера
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if v, ok := any(env.Data).(validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &env, nil
}

func doEnvelope[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*pkgapi.Envelope[T], error) {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[T](resp)
}

// Register создает нового пользователя. The server answers with a flat body.
func (c *Client) Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/register", nil, req)
	if err != nil {
		return nil, err
	}

	var result pkgapi.RegisterResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: result.Message}
	}
	return &result, nil
}

// Login выполняет аутентификацию по email и паролю
func (c *Client) Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginData, error) {
	env, err := doEnvelope[pkgapi.LoginData](ctx, c, http.MethodPost, "/auth/login", nil, req)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// LoginWithGoogle exchanges a Google ID token for a session
func (c *Client) LoginWithGoogle(ctx context.Context, req pkgapi.GoogleLoginRequest) (*pkgapi.LoginData, error) {
	env, err := doEnvelope[pkgapi.LoginData](ctx, c, http.MethodPost, "/auth/google", nil, req)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Logout invalidates refreshToken on the server
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, pkgapi.LogoutRequest{RefreshToken: refreshToken})
	return err
}

// ResendVerification requests a new one-time code, returns the server message
func (c *Client) ResendVerification(ctx context.Context, email string) (string, error) {
	env, err := doEnvelope[json.RawMessage](ctx, c, http.MethodPost, "/auth/resend-verification", nil,
		pkgapi.ResendVerificationRequest{Email: email})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// VerifyEmail confirms the email with the one-time code, returns the server message
func (c *Client) VerifyEmail(ctx context.Context, req pkgapi.VerifyEmailRequest) (string, error) {
	env, err := doEnvelope[json.RawMessage](ctx, c, http.MethodPost, "/auth/verify-email", nil, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// News returns one page of the feed. Empty page requests the first one.
func (c *Client) News(ctx context.Context, category, page string, limit int) (*pkgapi.NewsPage, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if page != "" {
		query.Set("page", page)
	}

	env, err := doEnvelope[pkgapi.NewsPage](ctx, c, http.MethodGet, "/news/db", query, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// LatestNews returns recent articles other than excludeID
func (c *Client) LatestNews(ctx context.Context, excludeID string, limit int) ([]pkgapi.Article, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if excludeID != "" {
		query.Set("excludeId", excludeID)
	}

	env, err := doEnvelope[pkgapi.NewsPage](ctx, c, http.MethodGet, "/news/latest/feed", query, nil)
	if err != nil {
		return nil, err
	}
	return env.Data.Results, nil
}

// MarkRead reports a completed read of articleID
func (c *Client) MarkRead(ctx context.Context, articleID string, timeSpent int64) (*pkgapi.ReadData, error) {
	path := "/news/" + url.PathEscape(articleID) + "/read"
	env, err := doEnvelope[pkgapi.ReadData](ctx, c, http.MethodPost, path, nil, pkgapi.ReadRequest{TimeSpent: timeSpent})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Profile получает профиль текущего пользователя
func (c *Client) Profile(ctx context.Context) (*pkgapi.ProfileData, error) {
	env, err := doEnvelope[pkgapi.ProfileData](ctx, c, http.MethodGet, "/user/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) Wallet(ctx context.Context) (*pkgapi.WalletData, error) {
	env, err := doEnvelope[pkgapi.WalletData](ctx, c, http.MethodGet, "/user/wallet", nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) GiftCards(ctx context.Context) ([]pkgapi.GiftCard, error) {
	env, err := doEnvelope[pkgapi.GiftCardList](ctx, c, http.MethodGet, "/gift-cards", nil, nil)
	if err != nil {
		return nil, err
	}
	return env.Data.GiftCards, nil
}

// Redeem exchanges coins for a gift card, returns the result and the server message
func (c *Client) Redeem(ctx context.Context, req pkgapi.RedeemRequest) (*pkgapi.RedeemData, string, error) {
	env, err := doEnvelope[pkgapi.RedeemData](ctx, c, http.MethodPost, "/redeem", nil, req)
	if err != nil {
		return nil, "", err
	}
	return &env.Data, env.Message, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*pkgapi.HealthResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}

	var result pkgapi.HealthResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}
