package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

// Client calls the leconn HTTP API. It is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithToken starts the client with an existing bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient returns a client for the server at baseURL, for example
// "http://localhost:8080".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login", body, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// ListOptions filters ListPosts. Zero values are omitted from the query.
type ListOptions struct {
	Limit    int
	UserID   uint
	BeforeID uint
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.UserID > 0 {
		q.Set("user_id", strconv.FormatUint(uint64(o.UserID), 10))
	}
	if o.BeforeID > 0 {
		q.Set("before_id", strconv.FormatUint(uint64(o.BeforeID), 10))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListPosts fetches a page of the feed, newest first.
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, fiber.MethodGet, "/api/posts"+opts.query(), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes content. A non-nil parentID makes it a reply.
func (c *Client) CreatePost(ctx context.Context, content string, parentID *uint) (*Post, error) {
	body := map[string]interface{}{"content": content}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	var post Post
	if err := c.do(ctx, fiber.MethodPost, "/api/posts", body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes one of the caller's posts.
func (c *Client) DeletePost(ctx context.Context, postID uint) error {
	return c.do(ctx, fiber.MethodDelete, postPath(postID, ""), nil, nil)
}

// SetLike moves the caller's like on postID to the given state. Repeating
// the same state is a no-op on the server.
func (c *Client) SetLike(ctx context.Context, postID uint, liked bool) (*LikeState, error) {
	action := "unlike"
	if liked {
		action = "like"
	}
	var state LikeState
	if err := c.do(ctx, fiber.MethodPost, postPath(postID, "/like"), map[string]string{"action": action}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ToggleLike flips the caller's like on postID.
func (c *Client) ToggleLike(ctx context.Context, postID uint) (*LikeState, error) {
	var state LikeState
	if err := c.do(ctx, fiber.MethodPost, postPath(postID, "/like"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// IssueTicket requests a single-use websocket ticket.
func (c *Client) IssueTicket(ctx context.Context) (string, error) {
	var out struct {
		Ticket string `json:"ticket"`
	}
	if err := c.do(ctx, fiber.MethodPost, "/api/ws/ticket", nil, &out); err != nil {
		return "", err
	}
	return out.Ticket, nil
}

func postPath(postID uint, suffix string) string {
	return "/api/posts/" + strconv.FormatUint(uint64(postID), 10) + suffix
}

func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return timeout
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if token := c.Token(); token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		a.JSON(body)
	}
	a.Timeout(c.requestTimeout(ctx))

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	// Bytes releases the agent.
	status, respBody, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	if status >= fiber.StatusBadRequest {
		apiErr := &APIError{Status: status}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fiber.StatusNotFound
}
