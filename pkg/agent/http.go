package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

const maxResponseBytes = 4 << 20 // 4 MiB

// HTTPInvoker dispatches tasks to agents with http(s) endpoints. The request
// is POSTed as JSON; the response body must be a JSON object and becomes the
// result payload. Deadlines come from the caller's context, so the guarded
// executor's timeout budget covers the whole exchange.
type HTTPInvoker struct {
	client *http.Client
}

// HTTPInvokerOption customises HTTPInvoker construction.
type HTTPInvokerOption func(*HTTPInvoker)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPInvokerOption {
	return func(i *HTTPInvoker) { i.client = client }
}

// NewHTTPInvoker builds an invoker with an otel-instrumented transport.
func NewHTTPInvoker(opts ...HTTPInvokerOption) *HTTPInvoker {
	i := &HTTPInvoker{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type invokePayload struct {
	TaskID string         `json:"task_id"`
	UserID string         `json:"user_id"`
	Query  string         `json:"query"`
	Ctx    map[string]any `json:"context,omitempty"`
}

// Invoke implements Invoker.
func (i *HTTPInvoker) Invoke(ctx context.Context, desc domain.AgentDescriptor, req domain.TaskRequest) (map[string]any, error) {
	if !strings.HasPrefix(desc.Endpoint, "http://") && !strings.HasPrefix(desc.Endpoint, "https://") {
		return nil, Permanent(fmt.Errorf("agent %s endpoint %q is not an HTTP(S) URL", desc.Name, desc.Endpoint))
	}

	body, err := json.Marshal(invokePayload{
		TaskID: req.TaskID.String(),
		UserID: req.UserID,
		Query:  req.Query,
		Ctx:    req.Context,
	})
	if err != nil {
		return nil, Permanent(fmt.Errorf("encode invocation payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, desc.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, Permanent(fmt.Errorf("build invocation request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(httpReq)
	if err != nil {
		// Network-level failures are transient until proven otherwise.
		return nil, fmt.Errorf("invoke agent %s: %w", desc.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read agent %s response: %w", desc.Name, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("agent %s returned %d", desc.Name, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, Permanent(fmt.Errorf("agent %s rejected the request with %d", desc.Name, resp.StatusCode))
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, Permanent(fmt.Errorf("decode agent %s response: %w", desc.Name, err))
	}
	return result, nil
}
