package crm

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned by Update when no record has the given id.
var ErrRecordNotFound = errors.New("record not found")

// ErrMissingID is returned by Update when the payload has no "id".
var ErrMissingID = errors.New("update payload has no id")

// APIError is an error reported by the CRM, either for the whole request or
// for the single record in it.
type APIError struct {
	Status  int    // HTTP status; 0 for a per-record error
	Code    string // CRM error code, e.g. MANDATORY_NOT_FOUND
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("crm: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("crm: %d %s: %s", e.Status, e.Code, e.Message)
}

func recordID(fields map[string]any) (string, error) {
	id, _ := fields["id"].(string)
	if id == "" {
		return "", ErrMissingID
	}
	return id, nil
}
