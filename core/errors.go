package core

import "github.com/ayoisaiah/respite/internal/apperr"

var (
	errInvalidBreak = &apperr.Error{
		Message: "break id %d is out of range",
	}

	errUnknownTimer = &apperr.Error{
		Message: "peer sent state for unknown timer %q",
	}

	errStopped = &apperr.Error{
		Message: "the break loop has stopped",
	}

	errSaveState = &apperr.Error{
		Message: "saving timer state failed",
	}

	errWriteStatus = &apperr.Error{
		Message: "writing status file failed",
	}
)
