package repository

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound     = errors.New("outfit not ranked")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
