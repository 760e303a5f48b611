// Package providers implements factory machines for the fal.ai queue API,
// Replicate predictions and CivitAI orchestration jobs. Every client submits
// a job, polls it with exponential backoff and maps the provider's output to
// ports.GenerationResult. The caller's context bounds the whole generation.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxErrorBody = 4 << 10

// errStillRunning makes poll try again.
var errStillRunning = errors.New("generation still running")

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// PollPolicy shapes the backoff between status checks.
type PollPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPollPolicy suits generations that take seconds to minutes.
var DefaultPollPolicy = PollPolicy{InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second}

func (p PollPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = 1.5
	b.MaxElapsedTime = 0
	return backoff.WithContext(b, ctx)
}

// retry runs op until it succeeds, fails permanently or ctx ends. Retryable
// status errors and errStillRunning are retried; everything else is permanent.
func (p PollPolicy) retry(ctx context.Context, op func() error) error {
	return p.retryWhen(ctx, op, func(err error) bool {
		var statusErr *StatusError
		return errors.Is(err, errStillRunning) || (errors.As(err, &statusErr) && statusErr.Retryable())
	})
}

// submit runs a job-creating request. Only 429 is retried: after a 5xx the
// provider may already have accepted, and will bill, the job.
func (p PollPolicy) submit(ctx context.Context, op func() error) error {
	return p.retryWhen(ctx, op, func(err error) bool {
		var statusErr *StatusError
		return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests
	})
}

func (p PollPolicy) retryWhen(ctx context.Context, op func() error, retryable func(error) bool) error {
	var last error
	err := backoff.Retry(func() error {
		last = op()
		if last == nil {
			return nil
		}
		if retryable(last) {
			return last
		}
		return backoff.Permanent(last)
	}, p.backOff(ctx))
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if last != nil && !errors.Is(last, ctxErr) {
			return fmt.Errorf("%w (last: %w)", ctxErr, last)
		}
		return ctxErr
	}
	return err
}

// jsonClient sends JSON requests with a fixed authorization header.
type jsonClient struct {
	http          *http.Client
	authorization string
}

func (c jsonClient) do(ctx context.Context, method, rawURL string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, URL: rawURL, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, rawURL, err)
	}
	return nil
}

// contentTypeOf guesses a MIME type from the URL path when the provider does not send one.
func contentTypeOf(rawURL, fallback string) string {
	if fallback != "" {
		return fallback
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return mime.TypeByExtension(path.Ext(u.Path))
}

func withDefault(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 60 * time.Second}
}
