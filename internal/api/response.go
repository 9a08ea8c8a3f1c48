package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// envelope is the paginated response shape: {"results": [...], "next": url}.
type envelope struct {
	Results *[]json.RawMessage `json:"results"`
	Next    *string            `json:"next"`
}

// decodeCollection accepts either a bare JSON array or an envelope and returns
// its elements plus the next page link, if any.
func decodeCollection(data []byte) ([]json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, "", errors.New("empty response body")
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, "", fmt.Errorf("decoding array: %w", err)
		}
		return elems, "", nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, "", fmt.Errorf("decoding envelope: %w", err)
		}
		if env.Results == nil {
			return nil, "", errors.New("object response without results")
		}
		next := ""
		if env.Next != nil {
			next = *env.Next
		}
		return *env.Results, next, nil
	default:
		return nil, "", fmt.Errorf("unexpected response starting with %q", trimmed[0])
	}
}

// errorBody is the optional shape of an error response.
type errorBody struct {
	Detail any `json:"detail"`
}

func newError(status int, data []byte) *Error {
	e := &Error{Status: status}
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if detail, ok := body.Detail.(string); ok {
			e.Detail = detail
		}
	}
	return e
}
