package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/offline"
	"github.com/five82/trainlog/internal/workout"
)

// PlanSource is the part of the client the plan cache depends on.
type PlanSource interface {
	FetchWorkoutPlan(ctx context.Context) (workout.Plan, error)
	FallbackWorkoutPlan(ctx context.Context) workout.Plan
}

// Tracker is the set of backend operations the tracker services use.
type Tracker interface {
	PlanSource
	UpdateSetState(ctx context.Context, update SetStateUpdate) (SetStateResult, error)
	GetNote(ctx context.Context, day string, kind workout.Kind) (workout.Note, error)
	PutNote(ctx context.Context, day string, kind workout.Kind, text string) (workout.Note, error)
}

// Ensure Client implements Tracker at compile time.
var _ Tracker = (*Client)(nil)

// AnonymousUserID identifies requests made without a known user.
const AnonymousUserID = "0"

const (
	defaultAPIBase        = "127.0.0.1:8000"
	defaultUserAgent      = "trainlog/0.1"
	defaultRequestTimeout = 10 * time.Second
	defaultPlanTimeout    = 10 * time.Second
	maxErrorBody          = 512
)

// Options configures a Client.
type Options struct {
	BaseURL        string
	UserID         string
	DeviceID       string
	RequestTimeout time.Duration
	PlanTimeout    time.Duration
	Fallback       *offline.Store
	Logger         *log.Logger
	HTTPClient     *http.Client
	Now            func() time.Time
}

// Client talks to the tracker backend and substitutes the local fallback store when a
// call fails.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	userAgent   string
	userID      string
	deviceID    string
	planTimeout time.Duration
	fallback    *offline.Store
	logger      *log.Logger
	now         func() time.Time

	entropyMu sync.Mutex
	entropy   *rand.Rand

	dirtyMu sync.Mutex
	dirty   map[string]struct{}

	handlers map[string]fallbackHandler
}

// NewClient builds a Client from opts. A nil fallback store behaves as unavailable storage.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	planTimeout := opts.PlanTimeout
	if planTimeout <= 0 {
		planTimeout = defaultPlanTimeout
	}
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		userID = AnonymousUserID
	}
	logger := logging.OrDiscard(opts.Logger)
	fallback := opts.Fallback
	if fallback == nil {
		fallback = offline.Unavailable(logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Client{
		baseURL:     base,
		http:        httpClient,
		userAgent:   defaultUserAgent,
		userID:      userID,
		deviceID:    strings.TrimSpace(opts.DeviceID),
		planTimeout: planTimeout,
		fallback:    fallback,
		logger:      logger.With("component", "api"),
		now:         now,
		entropy:     rand.New(rand.NewSource(now().UnixNano())),
		dirty:       map[string]struct{}{},
	}
	c.handlers = c.fallbackHandlers()
	return c, nil
}

// UserID returns the identity sent with every request.
func (c *Client) UserID() string {
	return c.userID
}

// Get fetches path into dest. When the call fails and path has an offline fallback, the
// stored value is decoded into dest instead and no error is returned. A value written
// locally after a failed write is served until a later write for it succeeds.
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	handler, hasFallback := c.handlers[apiPath(path)]
	if hasFallback && c.isDirty(handler.key()) {
		c.logger.Debug("serving locally written value", "path", path)
		return convert(handler.read(ctx), dest)
	}

	err := c.do(ctx, http.MethodGet, path, nil, dest)
	if err == nil {
		return nil
	}
	if !hasFallback {
		return err
	}
	c.logger.Warn("get failed, using offline fallback", "path", path, "error", err)
	return convert(handler.read(ctx), dest)
}

// Post sends body to path and decodes the reply into dest. When the call fails and path
// has an offline fallback, the value is written locally, the merged result is decoded into
// dest, and the error is still returned.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	handler, hasFallback := c.handlers[apiPath(path)]

	err := c.do(ctx, http.MethodPost, path, body, dest)
	if err == nil {
		if hasFallback {
			c.clearDirty(handler.key())
		}
		return nil
	}
	if !hasFallback || handler.write == nil {
		return err
	}
	c.logger.Warn("post failed, writing offline fallback", "path", path, "error", err)
	if result := handler.write(ctx, body); result != nil {
		_ = convert(result, dest)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return &Error{Kind: KindClient, Method: method, Path: path, Err: fmt.Errorf("parse path: %w", err)}
	}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.resolve(rel)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-User-Id", c.userID)
	req.Header.Set("X-Request-Id", c.newRequestID())
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Method: method, Path: rel.Path, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.Debug("request", "method", method, "path", rel.Path, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
		if text := strings.TrimSpace(string(snippet)); text != "" {
			err = fmt.Errorf("api %s returned status %d: %s", rel.Path, resp.StatusCode, text)
		}
		return &Error{Kind: kindForStatus(resp.StatusCode), Method: method, Path: rel.Path, Status: resp.StatusCode, Err: err}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return &Error{Kind: KindMalformedResponse, Method: method, Path: rel.Path, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) resolve(rel *url.URL) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(c.baseURL.Path, "/") + rel.Path
	u.RawPath = ""
	u.RawQuery = rel.RawQuery
	return &u
}

func (c *Client) newRequestID() string {
	c.entropyMu.Lock()
	defer c.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(c.now()), c.entropy).String()
}

func (c *Client) markDirty(key string) {
	c.dirtyMu.Lock()
	c.dirty[key] = struct{}{}
	c.dirtyMu.Unlock()
}

func (c *Client) clearDirty(key string) {
	c.dirtyMu.Lock()
	delete(c.dirty, key)
	c.dirtyMu.Unlock()
}

func (c *Client) isDirty(key string) bool {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	_, ok := c.dirty[key]
	return ok
}

func (c *Client) dirtyWithPrefix(prefix string) []string {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	var out []string
	for k := range c.dirty {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (c *Client) key(entity string, qualifiers ...string) string {
	return offline.Key(c.userID, entity, qualifiers...)
}

func (c *Client) today() string {
	return workout.Day(c.now())
}

// convert copies a decoded JSON value into dest through its JSON form.
func convert(src, dest any) error {
	if dest == nil || src == nil {
		return nil
	}
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode fallback value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode fallback value: %w", err)
	}
	return nil
}

func apiPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		path, _, _ := strings.Cut(raw, "?")
		return path
	}
	return u.Path
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
