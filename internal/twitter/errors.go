package twitter

import "errors"

// Sentinel errors for upstream API rejections. Callers branch on these
// with errors.Is; everything else is a wrapped transport failure.
var (
	ErrNotFound     = errors.New("tweet not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
)
