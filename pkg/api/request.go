package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/grovetools/nig-upload/errors"
)

// rawJSON is a request body sent verbatim as application/json.
type rawJSON string

// chunk is a request body of raw file bytes.
type chunk []byte

// params defines one API request.
type params struct {
	method  string
	path    string
	body    any // url.Values, rawJSON or chunk
	headers map[string]string
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) text() string {
	return string(r.body)
}

// do sends the request, retrying transport failures. Any HTTP status is a
// successful round trip; callers check the status they expect.
func (c *Client) do(ctx context.Context, p params) (*response, error) {
	target := c.baseURL + p.path

	var (
		data        []byte
		contentType string
	)
	switch v := p.body.(type) {
	case nil:
	case url.Values:
		data = []byte(v.Encode())
		contentType = "application/x-www-form-urlencoded"
	case rawJSON:
		data = []byte(v)
		contentType = "application/json"
	case chunk:
		data = v
		contentType = "application/octet-stream"
	default:
		return nil, errors.New(errors.ErrCodeInternal, fmt.Sprintf("unsupported request body %T", p.body))
	}

	var resp *response
	operation := func() error {
		var br io.Reader
		if data != nil {
			br = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, p.method, target, br)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range p.headers {
			req.Header.Set(k, v)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer res.Body.Close()

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		resp = &response{status: res.StatusCode, body: b}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.wait), uint64(c.maxAttempts-1)),
		ctx,
	)
	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		c.logger.WithError(err).
			WithField("method", p.method).
			WithField("url", target).
			Errorf("The request raised the following error %v", err)
		c.logger.Debugf("Retry n.%d will be done in %s", attempt, next)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, errors.Network(p.method, target, err)
	}

	c.logger.WithField("method", p.method).
		WithField("url", target).
		WithField("status", resp.status).
		Debug("request completed")
	return resp, nil
}

// expect turns an unexpected status into a coded error.
func expect(resp *response, status int, code errors.ErrorCode, message string) error {
	if resp.status != status {
		return errors.Response(code, message, resp.status, resp.text())
	}
	return nil
}

// decode unmarshals a JSON response body.
func decode(resp *response, target any, code errors.ErrorCode, message string) error {
	if err := json.Unmarshal(resp.body, target); err != nil {
		return errors.Wrap(err, code, message+": malformed response").
			WithResponse(resp.status, resp.text())
	}
	return nil
}
