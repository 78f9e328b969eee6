package cli

import (
	"fmt"
	"os"

	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
)

// PrintError prints an error to stderr with appropriate formatting.
// Structured errors use the user-friendly format; anything else is printed
// as a simple error message.
func PrintError(err error) {
	if e := tcerrors.AsError(err); e != nil {
		fmt.Fprintln(os.Stderr, e.UserMessage())
		if verbose {
			// In verbose mode, also print the error code and cause
			fmt.Fprintf(os.Stderr, "\nCode: %s\n", e.Code)
			if e.Cause != nil {
				fmt.Fprintf(os.Stderr, "Cause: %v\n", e.Cause)
			}
		} else if e.Cause != nil {
			fmt.Fprintf(os.Stderr, "\n%v\n", e.Cause)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// errHistoryDisabled is returned by history commands when no history
// database is in use.
func errHistoryDisabled() error {
	return fmt.Errorf("revision history is disabled (see 'history.enabled' in settings or --no-history)")
}
