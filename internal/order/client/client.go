// Package client holds the order service's typed clients for its remote
// collaborators. Transport and 5xx failures surface as
// entity.ErrDependencyUnavailable; business refusals map to their own errors
// so the orchestrator can tell them apart.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/order/entity"
)

const defaultTimeout = 5 * time.Second

// readRetries bounds the extra attempts for idempotent reads. Mutating calls
// are never retried here.
const readRetries = 1

const retryBackoff = 100 * time.Millisecond

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doRead issues an idempotent request, retrying transport errors and 5xx
// responses a bounded number of times.
func doRead(ctx context.Context, httpClient *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= readRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", entity.ErrDependencyUnavailable, ctx.Err())
			case <-time.After(retryBackoff):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%w: %v", entity.ErrDependencyUnavailable, lastErr)
}
