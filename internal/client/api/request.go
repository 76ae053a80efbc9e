package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes an outbound call. Body is kept as bytes so the
// pipeline can replay it after a token refresh.
type Request struct {
	Header http.Header
	Query  url.Values
	Method string
	Path   string
	Body   []byte
	// NoRefresh returns a 401 as is. Set for credential endpoints, where
	// 401 means wrong credentials and not an expired access token.
	NoRefresh bool
}

// NewRequest builds a request with body marshalled to JSON (nil body sends none)
func NewRequest(method, path string, query url.Values, body any) (*Request, error) {
	req := &Request{
		Method: method,
		Path:   path,
		Query:  query,
		Header: make(http.Header),
	}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		req.Body = data
	}

	return req, nil
}

// Response is a fully read HTTP response
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
	// SessionCleared is set when the pipeline tore the session down
	// while handling this response
	SessionCleared bool
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
