package research

import (
	"context"
	"errors"

	"github.com/matzehuels/shed/pkg/httputil"
)

// Chain asks each backend in order and returns the first findings that
// declare a license. When none does, the evidence of all answering
// backends is merged so the caller can classify the combined text.
//
// If no backend answered, Chain returns a retryable error when any backend
// failed transiently, and the last permanent error otherwise.
type Chain []Backend

// Research implements Backend.
func (c Chain) Research(ctx context.Context, q Query) (*Findings, error) {
	var (
		acc       *Findings
		lastErr   error
		transient error
	)
	for _, b := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := b.Research(ctx, q)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return nil, err
				}
			}
			if httputil.IsRetryable(err) {
				transient = err
			}
			lastErr = err
			continue
		}
		if f == nil {
			continue
		}
		if f.License != "" {
			return merge(f, acc), nil
		}
		acc = merge(acc, f)
	}

	switch {
	case acc != nil:
		return acc, nil
	case transient != nil:
		return nil, transient
	case lastErr != nil:
		return nil, lastErr
	default:
		return nil, ErrNoSource
	}
}
