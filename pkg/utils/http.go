package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ErrUnexpectedStatus marks a response that arrived with a non-2xx status
var ErrUnexpectedStatus = errors.New("unexpected status")

// HandleJSONResponse handles JSON HTTP responses
func HandleJSONResponse(resp *resty.Response, target interface{}, errorMsg string) error {
	if !resp.IsSuccess() {
		return fmt.Errorf("%s: %w %d", errorMsg, ErrUnexpectedStatus, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), target); err != nil {
		return fmt.Errorf("%s: invalid response: %w", errorMsg, err)
	}
	return nil
}

// WrapError wraps an error with a consistent message format
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("unable to %s: %w", operation, err)
}
