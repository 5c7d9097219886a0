package gotrue

import (
	"errors"
	"fmt"
)

// APIError captures a failed transport call: either the request never made it
// to the service or the service answered with a non-2xx status.
type APIError struct {
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
	Raw         map[string]any
}

func (e *APIError) Error() string {
	if e == nil {
		return "gotrue api error"
	}

	scope := "gotrue"
	if e.Operation != "" {
		scope = fmt.Sprintf("gotrue %s", e.Operation)
	}

	if e.Status != 0 {
		if e.Description != "" {
			return fmt.Sprintf("%s failed: status %d: %s", scope, e.Status, e.Description)
		}
		return fmt.Sprintf("%s failed: status %d", scope, e.Status)
	}
	if e.Description != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Description)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *APIError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}
	if len(e.Raw) > 0 {
		meta["raw"] = e.Raw
	}

	return meta
}

// AsAPIError unwraps err looking for a transport failure.
func AsAPIError(err error) (*APIError, bool) {
	var aerr *APIError
	if errors.As(err, &aerr) && aerr != nil {
		return aerr, true
	}
	return nil, false
}
