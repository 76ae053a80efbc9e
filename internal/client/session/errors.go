package session

import "errors"

// ErrIncompleteSession is returned by Save when a session lacks a token or the user
var ErrIncompleteSession = errors.New("session must carry access token, refresh token and user")
