package git

import "errors"

var (
	ErrSourceNotSet  = errors.New("source folder is not set")
	ErrNotRepository = errors.New("source folder is not a git repository")
)
