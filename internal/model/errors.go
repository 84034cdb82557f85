package model

import (
	"errors"
	"fmt"
)

// ErrUserNotFound marks a handle that could not be resolved on the selected
// platform. Distinct from transport errors so the caller can answer 404.
var ErrUserNotFound = errors.New("user not found")

// UpstreamError is a non-2xx answer from a required upstream call. Best-effort
// fan-out legs swallow these; primary calls surface them.
type UpstreamError struct {
	Source string
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: status %d", e.Source, e.Status)
}
