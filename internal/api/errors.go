package api

import "fmt"

// Error is a non-2xx response from the API gateway.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api request failed with %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api request failed with %d", e.Status)
}
