package query

import "errors"

var (
	// ErrInvalidRetryPolicy is returned when a policy has no attempts.
	ErrInvalidRetryPolicy = errors.New("retry policy needs at least one attempt")

	// ErrExtractorRequired is returned when no extractor is provided.
	ErrExtractorRequired = errors.New("extractor is required")

	// ErrRankerRequired is returned when no ranker is provided.
	ErrRankerRequired = errors.New("ranker is required")

	// ErrSessionStoreRequired is returned when no session store is provided.
	ErrSessionStoreRequired = errors.New("session store is required")
)
