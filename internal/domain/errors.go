package domain

import "errors"

var (
	ErrMissingCredentials = errors.New("missing provider credentials")
	ErrInvalidScript      = errors.New("invalid script")
	ErrNoAvatarSource     = errors.New("no avatar source")
)
