package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
)

var (
	// ErrUnauthorized means the server rejected the stored token. The
	// credentials have been cleared when it is returned bare; a wrapped
	// ErrUnauthorized also carries the error that kept them from clearing.
	ErrUnauthorized = errors.New("session expired, please log in again")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx response other than 401
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Config controls the client
type Config struct {
	BaseURL    string
	MaxRetries int
	// RetryWait bounds the backoff between connection-level retries
	RetryWait time.Duration
	Timeout   time.Duration
	Store     CredentialStore
	// OnLogout runs after the stored credentials are cleared. expired is
	// true when a 401 forced it.
	OnLogout func(expired bool)
}

// Client talks to the Digital Twin REST API with a stored bearer token
type Client struct {
	http     *resty.Client
	store    CredentialStore
	baseURL  string
	onLogout func(expired bool)

	mu sync.Mutex
}

// New creates a client. Connection errors and 5xx responses are retried
// by the transport; 4xx responses never are.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.Logger = nil
	retryClient.CheckRetry = checkRetry
	if cfg.RetryWait > 0 {
		retryClient.RetryWaitMin = cfg.RetryWait
		retryClient.RetryWaitMax = cfg.RetryWait
	}
	// hand the final response back instead of a "giving up" error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "twinctl/1.0").
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	return &Client{
		http:     rc,
		store:    cfg.Store,
		baseURL:  baseURL,
		onLogout: cfg.OnLogout,
	}
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode < http.StatusInternalServerError {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// BaseURL returns the server the client talks to
func (c *Client) BaseURL() string { return c.baseURL }

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"`
	User        types.User `json:"user"`
}

// Login exchanges a username and password for a token and stores it
func (c *Client) Login(ctx context.Context, username, password string) (Credentials, error) {
	var tok tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"username": username, "password": password}).
		SetResult(&tok).
		Post("/token")
	if err != nil {
		return Credentials{}, fmt.Errorf("login request: %w", err)
	}
	if resp.IsError() {
		return Credentials{}, apiError(resp)
	}
	if tok.AccessToken == "" {
		return Credentials{}, errors.New("login response carried no token")
	}

	creds := Credentials{
		Server:   c.baseURL,
		Token:    tok.AccessToken,
		UserID:   tok.User.ID,
		Username: tok.User.Username,
		Email:    tok.User.Email,
		Role:     string(tok.User.Role),
		IssuedAt: time.Now().UTC(),
	}
	if err := c.store.Save(creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Credentials returns the stored login
func (c *Client) Credentials() (Credentials, bool, error) {
	return c.store.Load()
}

// Request sends an authenticated request. body is sent as JSON when
// non-nil. A 401 clears the stored credentials and returns
// ErrUnauthorized.
func (c *Client) Request(ctx context.Context, method, endpoint string, body interface{}) (*resty.Response, error) {
	creds, ok, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}

	req := c.http.R().SetContext(ctx).SetAuthToken(creds.Token)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		if err := c.expire(); err != nil {
			return resp, fmt.Errorf("%w: clear credentials: %w", ErrUnauthorized, err)
		}
		return resp, ErrUnauthorized
	}
	if resp.IsError() {
		return resp, apiError(resp)
	}
	return resp, nil
}

// Get fetches endpoint and decodes the JSON body into out
func (c *Client) Get(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := c.Request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// Logout revokes the token on the server and clears it locally. The local
// credentials are cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, ok, err := c.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	_, reqErr := c.Request(ctx, http.MethodPost, "/logout", nil)
	// bare means expire already cleared them
	if reqErr == ErrUnauthorized {
		return nil
	}
	if errors.Is(reqErr, ErrUnauthorized) {
		return reqErr
	}
	if clearErr := c.clear(false); clearErr != nil {
		return clearErr
	}
	return reqErr
}

func (c *Client) expire() error {
	return c.clear(true)
}

func (c *Client) clear(expired bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Clear(); err != nil {
		return err
	}
	if c.onLogout != nil {
		c.onLogout(expired)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode()}
	var body errorBody
	if err := sonic.Unmarshal(resp.Body(), &body); err == nil {
		e.Message = body.Error
		if e.Message == "" {
			e.Message = body.Detail
		}
	}
	return e
}
