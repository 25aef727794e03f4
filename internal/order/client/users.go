package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/order/entity"
)

// Users is a typed client for the identity collaborator.
type Users struct {
	baseURL    string
	httpClient *http.Client
}

// NewUsers creates a client against the user service base URL.
func NewUsers(baseURL string, timeout time.Duration) *Users {
	return &Users{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
	}
}

// UserExists probes the identity collaborator for a user id. A remote 404 is
// a normal false; only transport/5xx failures are errors.
func (c *Users) UserExists(ctx context.Context, userID int) (bool, error) {
	resp, err := doRead(ctx, c.httpClient, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/users/%d", c.baseURL, userID), nil)
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: user service returned status %d", entity.ErrDependencyUnavailable, resp.StatusCode)
	}
}
