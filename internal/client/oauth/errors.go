package oauth

import "errors"

var (
	ErrNotStarted    = errors.New("sign-in flow was not started")
	ErrStateMismatch = errors.New("state mismatch")
	ErrNonceMismatch = errors.New("nonce mismatch")
	ErrNoIDToken     = errors.New("no id_token in token response")
	ErrNoCode        = errors.New("authorization code is empty")
)
