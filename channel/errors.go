package channel

import "errors"

var (
	// ErrOrchestratorRequired is returned when no orchestrator is provided.
	ErrOrchestratorRequired = errors.New("orchestrator is required")

	// ErrHandlerRequired is returned when no outcome handler is provided.
	ErrHandlerRequired = errors.New("outcome handler is required")
)
