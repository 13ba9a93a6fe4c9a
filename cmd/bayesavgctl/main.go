// Command bayesavgctl averages model posteriors from a local file without a server.
package main

import (
	"errors"
	"fmt"
	"os"

	bayesavg "github.com/kailas-cloud/bayesavg/pkg/sdk"
)

// Exit codes for different failure modes.
const (
	ExitSuccess      = 0 // Posterior written
	ExitInvalidInput = 1 // The document or flags were rejected
	ExitError        = 2 // Runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		if errors.Is(err, bayesavg.ErrInvalidInput) {
			os.Exit(ExitInvalidInput)
		}
		os.Exit(ExitError)
	}
}
