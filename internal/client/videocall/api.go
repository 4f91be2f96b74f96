package videocall

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	dto "github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
)

// APIClient calls the telemed request API
type APIClient struct {
	baseURL string
	token   string
	http    *resty.Client
}

// APIOption configures an APIClient
type APIOption func(*APIClient)

// WithToken sends a bearer token on every call
func WithToken(token string) APIOption {
	return func(c *APIClient) {
		c.token = token
		c.http.SetAuthToken(token)
	}
}

// WithTimeout bounds each HTTP call
func WithTimeout(d time.Duration) APIOption {
	return func(c *APIClient) {
		c.http.SetTimeout(d)
	}
}

// NewAPIClient creates a client rooted at baseURL, e.g. http://host:8081/api/telemed
func NewAPIClient(baseURL string, opts ...APIOption) *APIClient {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &APIClient{
		baseURL: baseURL,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit creates a request
func (c *APIClient) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponse, error) {
	var out dto.SubmitResponse
	var failure dto.ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failure).
		Post("/video-call-request")
	if err := checkResponse(resp, err, &failure); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: submit was not acknowledged", ErrUnreachable)
	}
	return &out, nil
}

// Status fetches a request's status
func (c *APIClient) Status(ctx context.Context, requestID string) (*dto.StatusResponse, error) {
	var out dto.StatusResponse
	var failure dto.ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", requestID).
		SetResult(&out).
		SetError(&failure).
		Get("/video-call-status/{id}")
	if err := checkResponse(resp, err, &failure); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pending lists pending requests; calleeID may be empty
func (c *APIClient) Pending(ctx context.Context, calleeID string) ([]*dto.CallRequestResponse, error) {
	var out dto.PendingRequestsResponse
	var failure dto.ErrorResponse
	r := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&failure)
	if calleeID != "" {
		r.SetQueryParam("calleeId", calleeID)
	}
	resp, err := r.Get("/pending-requests")
	if err := checkResponse(resp, err, &failure); err != nil {
		return nil, err
	}
	if !out.Success {
		// the server answers 200 with an empty list when its store fails
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, out.Error)
	}
	if out.Requests == nil {
		out.Requests = []*dto.CallRequestResponse{}
	}
	return out.Requests, nil
}

// Accept accepts a request as callee
func (c *APIClient) Accept(ctx context.Context, requestID string, callee dto.ParticipantInfo) (*dto.AcceptResponse, error) {
	var out dto.AcceptResponse
	var failure dto.ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", requestID).
		SetBody(dto.AcceptRequest{CalleeInfo: &callee}).
		SetResult(&out).
		SetError(&failure).
		Post("/accept-request/{id}")
	if err := checkResponse(resp, err, &failure); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decline declines a request
func (c *APIClient) Decline(ctx context.Context, requestID string) error {
	var failure dto.ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", requestID).
		SetError(&failure).
		Post("/decline-request/{id}")
	return checkResponse(resp, err, &failure)
}

// Cleanup asks the server to purge requests older than maxAge
func (c *APIClient) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	var out dto.CleanupResponse
	var failure dto.ErrorResponse
	ms := maxAge.Milliseconds()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(dto.CleanupRequest{MaxAge: &ms}).
		SetResult(&out).
		SetError(&failure).
		Post("/cleanup-old-requests")
	if err := checkResponse(resp, err, &failure); err != nil {
		return 0, err
	}
	return out.RemovedCount, nil
}

// EventsURL returns the WebSocket URL of the event stream
func (c *APIClient) EventsURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/events")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if c.token != "" {
		q := u.Query()
		q.Set("access_token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// checkResponse maps transport and HTTP failures onto the client error taxonomy
func checkResponse(resp *resty.Response, err error, failure *dto.ErrorResponse) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	msg := failure.Error
	if msg == "" {
		msg = resp.Status()
	}
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrAlreadyResolved, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}
	return fmt.Errorf("%w: %d %s", ErrUnreachable, resp.StatusCode(), msg)
}
