package backendhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/infra/metrics"
)

const maxResponseBytes = 16 * 1024 * 1024

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// RequestError describes a failed backend round trip. Transport is true when
// the request never produced an HTTP response.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
	Transport  bool
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, &RequestError{Op: "create backend client", Err: errors.New("backend base url is empty")}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, &RequestError{Op: "parse backend url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &RequestError{Op: "validate backend url", Err: fmt.Errorf("invalid backend url: %s", trimmed)}
	}

	return &Client{
		baseURL: strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// IsTransport reports whether err is a network-level failure rather than a
// response the backend chose to send.
func IsTransport(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Transport
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// BackendMessage returns the backend-provided message carried by err, if any.
func BackendMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return ""
}

func (c *Client) DoJSON(ctx context.Context, op string, method string, path string, requestBody any, responseBody any) (err error) {
	defer func() { metrics.ObserveBackendCall(op, err) }()

	if c == nil || c.httpClient == nil {
		return &RequestError{Op: op, Err: errors.New("backend client is not initialized")}
	}

	var bodyReader io.Reader
	if requestBody != nil {
		payload, marshalErr := json.Marshal(requestBody)
		if marshalErr != nil {
			return &RequestError{Op: op, Err: fmt.Errorf("marshal request body: %w", marshalErr)}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ensureLeadingSlash(path), bodyReader)
	if err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("create http request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: op, Transport: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Transport: true, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := decodeMessage(raw)
		errText := message
		if errText == "" {
			errText = http.StatusText(resp.StatusCode)
		}
		return &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    message,
			Err:        errors.New(errText),
		}
	}

	if responseBody == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, responseBody); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeMessage(raw []byte) string {
	var body messageDTO
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}

func requestID(ctx context.Context) string {
	if id := chimiddleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
