// Copyright 2025 Commune Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors
var (
	// ErrEmptyQuery indicates the inbound message had no usable text.
	ErrEmptyQuery = errors.New("query text cannot be empty")

	// ErrQueryTooLong indicates the inbound message exceeded the size ceiling.
	ErrQueryTooLong = errors.New("query text exceeds maximum length")

	// ErrInvalidMemberRecord indicates a MemberRecord failed validation.
	ErrInvalidMemberRecord = errors.New("invalid member record")

	// ErrEmptyTenant indicates a request or record without a tenant.
	ErrEmptyTenant = errors.New("tenant id cannot be empty")
)

// Provider and infrastructure errors
var (
	// ErrProviderTimeout indicates an outbound provider call exceeded its deadline.
	ErrProviderTimeout = errors.New("provider call timed out")

	// ErrProviderUnavailable indicates all providers in a chain are exhausted.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrExtractionDegraded marks a slow-path failure: the fast-path result was
	// used instead. Never fatal for a request.
	ErrExtractionDegraded = errors.New("extraction degraded to fast path")

	// ErrCacheUnavailable indicates a cache store failure. Callers bypass the
	// cache rather than failing the request.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// RateLimitError is returned when a per-user fixed-window counter is exhausted.
// It carries the category that tripped and the time until the window resets.
type RateLimitError struct {
	Category   RateCategory
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Category, e.RetryAfter)
}

// DataStoreError wraps a tenant data-store failure. It is the only error class
// that surfaces to the user; the request may be retried.
type DataStoreError struct {
	Op  string
	Err error
}

func (e *DataStoreError) Error() string {
	return fmt.Sprintf("data store %s: %v", e.Op, e.Err)
}

func (e *DataStoreError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err should be retried by the caller.
// Data-store failures and provider timeouts are retryable.
func IsRetryable(err error) bool {
	var ds *DataStoreError
	return errors.As(err, &ds) || errors.Is(err, ErrProviderTimeout)
}
