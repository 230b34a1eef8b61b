package cli

import "fmt"

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a general error occurred.
	// Use for: Database errors, unexpected failures.
	ExitFailure = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Invalid flag values or combinations.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: No stored board, unknown column, missing bucket.
	ExitNotFound = 3

	// ExitUnavailable indicates a dependency could not be reached.
	// Use for: Host status endpoint down, storage unreachable.
	ExitUnavailable = 69
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code int
	// Kind is the machine-readable error code shown in JSON output
	Kind string
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitErr wraps err with an exit code and kind
func exitErr(code int, kind string, err error) *ExitError {
	return &ExitError{Code: code, Kind: kind, Err: err}
}
