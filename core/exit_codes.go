package core

// Process exit codes.
const (
	// ExitCodeSuccess indicates normal termination.
	ExitCodeSuccess = 0

	// ExitCodeError indicates a startup or runtime failure.
	ExitCodeError = 1
)
