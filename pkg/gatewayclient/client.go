// Package gatewayclient est le client HTTP de l'api-gateway. Il sert de
// Fetcher à feedsession et d'API à reactionsync.
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	feedv1 "github.com/jupiterclapton/gamefeed/api/feed/v1"
	interactionv1 "github.com/jupiterclapton/gamefeed/api/interaction/v1"
	postv1 "github.com/jupiterclapton/gamefeed/api/post/v1"
	"github.com/jupiterclapton/gamefeed/pkg/feedsession"
	"github.com/jupiterclapton/gamefeed/pkg/reactionsync"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnavailable  = errors.New("service unavailable")
)

// APIError porte la réponse d'erreur du gateway.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %d %s: %s", e.Status, e.Code, e.Message)
}

// Is permet errors.Is(err, gatewayclient.ErrRateLimited).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Status == http.StatusBadRequest
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Feed ---

// FetchPage implémente feedsession.Fetcher.
func (c *Client) FetchPage(ctx context.Context, req feedsession.Request) (feedsession.Page, error) {
	q := url.Values{}
	q.Set("scope", string(req.Scope))
	if req.FilterTag != "" {
		q.Set("filter", req.FilterTag)
	}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	var resp feedv1.GetFeedResponse
	if err := c.do(ctx, http.MethodGet, "/v1/feed?"+q.Encode(), nil, &resp); err != nil {
		return feedsession.Page{}, err
	}
	return feedsession.Page{Items: resp.Items, NextCursor: resp.NextCursor, HasMore: resp.HasMore}, nil
}

// --- Réactions (reactionsync.API) ---

func (c *Client) ToggleReaction(ctx context.Context, key, action string) (reactionsync.State, error) {
	var st interactionv1.ReactionState
	body := map[string]string{"reactableKey": key, "action": action}
	if err := c.do(ctx, http.MethodPost, "/v1/reactions", body, &st); err != nil {
		return reactionsync.State{}, err
	}
	return toState(st), nil
}

func (c *Client) ReactionState(ctx context.Context, key string) (reactionsync.State, error) {
	var st interactionv1.ReactionState
	if err := c.do(ctx, http.MethodGet, "/v1/reactions?key="+url.QueryEscape(key), nil, &st); err != nil {
		return reactionsync.State{}, err
	}
	return toState(st), nil
}

func (c *Client) AddComment(ctx context.Context, key, body string) (int, error) {
	var resp interactionv1.AddCommentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/comments", map[string]string{"reactableKey": key, "body": body}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) (int, error) {
	var resp interactionv1.CommentCountResponse
	if err := c.do(ctx, http.MethodDelete, "/v1/comments/"+url.PathEscape(commentID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) CommentCount(ctx context.Context, key string) (int, error) {
	var resp interactionv1.CommentCountResponse
	if err := c.do(ctx, http.MethodGet, "/v1/comments/count?key="+url.QueryEscape(key), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// --- Posts & relations ---

func (c *Client) CreatePost(ctx context.Context, content, gameID string) (postv1.Post, error) {
	var p postv1.Post
	body := map[string]string{"content": content}
	if gameID != "" {
		body["gameId"] = gameID
	}
	err := c.do(ctx, http.MethodPost, "/v1/posts", body, &p)
	return p, err
}

// SetRelation pose (on=true) ou retire une relation follows/blocks/mutes.
func (c *Client) SetRelation(ctx context.Context, relation, targetID string, on bool) error {
	method := http.MethodDelete
	if on {
		method = http.MethodPut
	}
	return c.do(ctx, method, "/v1/relations/"+url.PathEscape(relation)+"/"+url.PathEscape(targetID), nil, nil)
}

func toState(st interactionv1.ReactionState) reactionsync.State {
	return reactionsync.State{Liked: st.Liked, Count: st.Count, Comments: st.Comments}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			apiErr.Code, apiErr.Message = eb.Code, eb.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
