package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/grovetools/nig-upload/errors"
)

// DefaultIPService echoes the caller's public address.
const DefaultIPService = "https://ident.me"

// PublicIP returns the public address of this host as seen by serviceURL.
// The server binds an upload to the address it started from.
func (c *Client) PublicIP(ctx context.Context, serviceURL string) (string, error) {
	if serviceURL == "" {
		serviceURL = DefaultIPService
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid IP service URL").
			WithDetail("url", serviceURL)
	}
	res, err := c.ipClient.Do(req)
	if err != nil {
		return "", errors.Network(http.MethodGet, serviceURL, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Network(http.MethodGet, serviceURL, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", errors.Response(errors.ErrCodeNetwork, "Can't retrieve the public IP address", res.StatusCode, string(body))
	}
	return strings.TrimSpace(string(body)), nil
}
