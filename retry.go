package s3

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the exponential-backoff retry loop Bucket.do runs
// around every signed request (spec.md §5 "Retries"). The zero value
// disables retries.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries transient failures up to 4 times with
// exponential backoff starting at 200ms.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      4,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxRetries)), ctx)
}

// withRetry runs attempt repeatedly per policy. attempt rebuilds and
// re-signs the request itself (a fresh timestamp every try, since a
// SigV4 signature is only valid for 15 minutes) and returns a
// *Response alongside an error that marks whether the outcome is
// retryable.
func withRetry(ctx context.Context, policy RetryPolicy, attempt func() (*Response, error)) (*Response, error) {
	if policy.MaxRetries <= 0 {
		return attempt()
	}

	var result *Response
	op := func() error {
		resp, err := attempt()
		if err != nil {
			if isRetryableNetworkError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if isRetryableStatus(resp.StatusCode) {
			result = resp
			return errRetryableStatus
		}
		result = resp
		return nil
	}

	err := backoff.Retry(op, policy.backOff(ctx))
	if err != nil && !errors.Is(err, errRetryableStatus) {
		return nil, err
	}
	return result, nil
}

var errRetryableStatus = errors.New("s3: retryable status code")

// isRetryableNetworkError matches spec.md §5: connection reset, DNS
// failures, and timeouts are retried; a cancelled/deadline-exceeded
// context is not, since retrying it can't possibly help.
func isRetryableNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
