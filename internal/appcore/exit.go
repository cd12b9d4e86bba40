package appcore

import (
	"context"
	"errors"

	"microsim-core/simerr"
	"microsim/internal/model"
)

// Exit codes shared by every tool.
const (
	ExitOK        = 0
	ExitUsage     = 2 // bad flags, invalid model or simulation input
	ExitIO        = 3 // runtime I/O error
	ExitCancelled = 130
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case simerr.IsInput(err), errors.Is(err, model.ErrInvalidModel):
		return ExitUsage
	}
	return ExitIO
}
