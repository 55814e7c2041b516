package constants

import "errors"

// Command line errors.
var (
	ErrNothingToUpdate     = errors.New("nothing to update, pass --status and/or --corrective-action")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrNotATerminal        = errors.New("stdin is not a terminal")
	ErrEmptyAPIKey         = errors.New("API key must not be empty")
)
