package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	cblog "github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	appcontext "github.com/darksworm/backoffice/pkg/context"
	apperrors "github.com/darksworm/backoffice/pkg/errors"
)

// Options configures a Client
type Options struct {
	BaseURL  string
	Token    string
	Insecure bool
	// TLS overrides Insecure when set
	TLS *tls.Config
	// HTTPClient replaces the default transport, mainly for tests
	HTTPClient *http.Client
}

// Client is a small JSON-over-HTTP client for the back office REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for opts.BaseURL
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   3 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
		}
		switch {
		case opts.TLS != nil:
			transport.TLSClientConfig = opts.TLS
		case opts.Insecure:
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		// no client timeout; requests carry context deadlines
		httpClient = &http.Client{Transport: transport}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
	}
}

// BaseURL returns the normalised base URL
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) buildURL(path string) string {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasPrefix(path, "?") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := appcontext.WithAPITimeout(ctx)
	defer cancel()
	return c.request(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	ctx, cancel := appcontext.WithAPITimeout(ctx)
	defer cancel()
	return c.request(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	ctx, cancel := appcontext.WithAPITimeout(ctx)
	defer cancel()
	return c.request(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := appcontext.WithAPITimeout(ctx)
	defer cancel()
	return c.request(ctx, http.MethodDelete, path, nil)
}

// Stream opens a long-lived GET for server-sent events. The caller owns
// the returned body; cancellation comes from ctx only.
func (c *Client) Stream(ctx context.Context, path string) (io.ReadCloser, error) {
	url := c.buildURL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "REQUEST_CREATE_FAILED",
			"Failed to create stream request").
			WithContext("url", url)
	}
	c.setAuth(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if timeoutErr := appcontext.HandleTimeout(ctx, appcontext.OpAPI); timeoutErr != nil {
			return nil, timeoutErr.WithContext("url", url)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "STREAM_REQUEST_FAILED",
			"Stream request failed").
			WithContext("url", url).
			AsRecoverable()
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, c.createAPIError(resp.StatusCode, string(body), url).
			WithContext("method", http.MethodGet).
			WithContext("path", path)
	}
	return resp.Body, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// request performs the actual HTTP request
func (c *Client) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	url := c.buildURL(path)

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorValidation, "JSON_MARSHAL_FAILED",
				"Failed to marshal request body").
				WithContext("method", method).
				WithContext("path", path)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "REQUEST_CREATE_FAILED",
			"Failed to create HTTP request").
			WithContext("method", method).
			WithContext("url", url).
			WithUserAction("Check the api.base_url setting")
	}
	c.setAuth(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// context errors win over transport errors
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.TimeoutError("REQUEST_TIMEOUT",
				"Request timed out - server may be unreachable").
				WithContext("method", method).
				WithContext("url", url).
				WithContext("timeout", appcontext.TimeoutFor(appcontext.OpAPI).String()).
				WithUserAction("Check your connection and try again")
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, apperrors.New(apperrors.ErrorInternal, "REQUEST_CANCELLED",
				"Request was cancelled").
				WithContext("method", method).
				WithContext("url", url)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, apperrors.TimeoutError("NETWORK_TIMEOUT",
				"Network connection timed out").
				WithContext("method", method).
				WithContext("url", url)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "HTTP_REQUEST_FAILED",
			"HTTP request failed").
			WithContext("method", method).
			WithContext("url", url).
			AsRecoverable().
			WithUserAction("Check your network connection and the API server")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorNetwork, "RESPONSE_READ_FAILED",
			"Failed to read response body").
			WithContext("method", method).
			WithContext("url", url)
	}

	if resp.StatusCode >= 400 {
		cblog.With("component", "api", "op", "http").Error("http error",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
			"len", len(respBody),
		)
		b := string(respBody)
		const maxLen = 2048
		if len(b) > maxLen {
			b = b[:maxLen] + "…"
		}
		cblog.With("component", "api").Debug("response body", "body", b)

		return nil, c.createAPIError(resp.StatusCode, string(respBody), url).
			WithContext("method", method).
			WithContext("path", path)
	}
	return respBody, nil
}

// createAPIError maps a failed response to an AppError. A JSON body with
// "message" (or "error") overrides the generic message and "fieldErrors"
// is kept in the error context for form redisplay.
func (c *Client) createAPIError(statusCode int, responseBody, url string) *apperrors.AppError {
	var (
		category    apperrors.ErrorCategory
		code        string
		message     string
		userAction  string
		recoverable bool
	)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		category = apperrors.ErrorPermission
		code = "FORBIDDEN"
		message = "Insufficient permissions for this operation"
		userAction = "Check the api.token setting"
	case http.StatusNotFound:
		category = apperrors.ErrorNotFound
		code = "NOT_FOUND"
		message = "Requested record not found"
		userAction = "Refresh the table"
		recoverable = true
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		category = apperrors.ErrorValidation
		code = "REJECTED"
		message = "The server rejected the request"
		userAction = "Correct the highlighted fields and try again"
		recoverable = true
	case http.StatusTooManyRequests:
		category = apperrors.ErrorAPI
		code = "RATE_LIMITED"
		message = "Too many requests - rate limited"
		userAction = "Wait a moment and try again"
		recoverable = true
	case 500, 502, 503, 504:
		category = apperrors.ErrorAPI
		code = "SERVER_ERROR"
		message = "API server error"
		userAction = "Check the API server status and try again"
		recoverable = true
	default:
		category = apperrors.ErrorAPI
		code = "API_ERROR"
		message = fmt.Sprintf("API request failed with status %d", statusCode)
		userAction = "Check the request and try again"
		recoverable = true
	}

	var fieldErrors map[string]string
	if gjson.Valid(responseBody) {
		parsed := gjson.Parse(responseBody)
		if m := parsed.Get("message").String(); m != "" {
			message = m
		} else if m := parsed.Get("error").String(); m != "" {
			message = m
		}
		if fe := parsed.Get("fieldErrors"); fe.IsObject() {
			fieldErrors = map[string]string{}
			fe.ForEach(func(k, v gjson.Result) bool {
				fieldErrors[k.String()] = v.String()
				return true
			})
		}
	}

	err := apperrors.New(category, code, message).
		WithSeverity(apperrors.SeverityMedium).
		WithDetails(responseBody).
		WithContext("statusCode", statusCode).
		WithContext("url", url).
		WithUserAction(userAction)
	if fieldErrors != nil {
		err.WithContext("fieldErrors", fieldErrors)
	}
	if recoverable {
		err.AsRecoverable()
	}
	return err
}

// FieldErrors extracts per-field messages from an API validation error.
func FieldErrors(err error) map[string]string {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Context == nil {
		return nil
	}
	fe, _ := appErr.Context["fieldErrors"].(map[string]string)
	return fe
}
