package rank

import "errors"

// ErrRepositoryRequired is returned when no member repository is provided.
var ErrRepositoryRequired = errors.New("member repository is required")
