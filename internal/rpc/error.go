// ABOUTME: RemoteError carries structured service failures back to callers
// ABOUTME: Decodes the platform's error-record envelope from non-2xx responses

package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minnowchat/minnow/internal/chat"
)

// RemoteError is a structured failure returned by a platform service.
type RemoteError struct {
	Method     string
	Version    string
	StatusCode int
	Record     chat.ErrorRecord
}

func (e *RemoteError) Error() string {
	if e.Record.Code != "" {
		return fmt.Sprintf("%s/%s: %s", e.Version, e.Method, e.Record.Code)
	}
	return fmt.Sprintf("%s/%s: http %d", e.Version, e.Method, e.StatusCode)
}

// Code returns the service error code, or "unknown" when the body carried none.
func (e *RemoteError) Code() string {
	if e.Record.Code == "" {
		return "unknown"
	}
	return e.Record.Code
}

// AsRemote unwraps err into a RemoteError if one is present in its chain.
func AsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	ok := errors.As(err, &re)
	return re, ok
}

// decodeError reads a non-2xx response body as an error-record envelope.
// Bodies that do not parse still produce a RemoteError with the status code.
func decodeError(resp *http.Response, method, version string) error {
	re := &RemoteError{
		Method:     method,
		Version:    version,
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return re
	}

	var record chat.ErrorRecord
	if err := json.Unmarshal(body, &record); err == nil && record.Code != "" {
		re.Record = record
		return re
	}

	// Some services wrap the record under an "error" key
	var wrapped struct {
		Error chat.ErrorRecord `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Code != "" {
		re.Record = wrapped.Error
	}
	return re
}
