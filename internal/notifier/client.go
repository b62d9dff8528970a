package notifier

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
)

// EndpointPath is the path of the githook endpoint, relative to the Critic base URL.
const EndpointPath = "UpdateTrackedBranch/githook"

// Endpoint returns the githook URL for the given Critic base URL.
func Endpoint(criticURL string) string {
	return strings.TrimRight(criticURL, "/") + "/" + EndpointPath
}

func newHTTPClient(verify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !verify, // #nosec G402 -- opt-in via the verify setting
	}
	return &http.Client{Transport: transport}
}

// post sends the request and decodes the response. The caller bounds the
// request with the context deadline.
func (n *Notifier) post(ctx context.Context, data Request) (Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if n.opts.Username != "" {
		req.SetBasicAuth(n.opts.Username, n.opts.Password)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTimeout(fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s for url %s: %s", resp.Status, n.endpoint, strings.TrimSpace(string(content)))
	}

	var result Response
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: expected a JSON object, got '%s'", ErrMalformedResponse, strings.TrimSpace(string(content)))
	}
	return result, nil
}

func wrapTimeout(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
