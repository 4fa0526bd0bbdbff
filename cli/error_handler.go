package cli

import (
	"fmt"
	"os"

	"github.com/studyscout/scout/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle prints a friendly message for known error codes and returns the
// original error for the exit path.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a scout.yml or pass --config.\n")
		return err

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		return err

	case errors.ErrCodeNetworkUnavailable:
		fmt.Fprintf(os.Stderr, "❌ Could not reach the service. Check your connection, or start a local one with 'scout dev-server'.\n")
		return err

	case errors.ErrCodeRequestTimeout:
		fmt.Fprintf(os.Stderr, "❌ The service did not respond in time. It may be overloaded; try again.\n")
		return err

	case errors.ErrCodeHardTimeout:
		fmt.Fprintf(os.Stderr, "❌ Document generation timed out. Try again with a simpler request.\n")
		return err

	case errors.ErrCodeRemoteFailure:
		if scoutErr, ok := err.(*errors.ScoutError); ok {
			fmt.Fprintf(os.Stderr, "❌ %s\n", scoutErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "❌ The service reported a failure: %v\n", err)
		}
		return err

	case errors.ErrCodeArtifactFetch:
		fmt.Fprintf(os.Stderr, "❌ Could not download the document: %v\n", err)
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if scoutErr, ok := err.(*errors.ScoutError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", scoutErr.ToJSON())
			}
		}
		return err
	}
}
