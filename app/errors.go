package app

import "github.com/ayoisaiah/respite/internal/apperr"

var (
	errNotRunning = &apperr.Error{
		Message: "respite does not appear to be running: no status file at %s",
	}

	errInvalidPeriod = &apperr.Error{
		Message: "unknown period %q: expected all-time, today, yesterday, 7days, 14days, 30days, 90days or 365days",
	}

	errInvalidDate = &apperr.Error{
		Message: "could not understand the date %q",
	}

	errInvalidDateRange = &apperr.Error{
		Message: "the end date must not be earlier than the start date",
	}

	errBreakArgs = &apperr.Error{
		Message: "expected a command and a break, e.g. `respite break force rest`",
	}

	errSendCommand = &apperr.Error{
		Message: "sending the break command failed; is respite running?",
	}

	errListen = &apperr.Error{
		Message: "opening the control port failed; is respite already running?",
	}
)
