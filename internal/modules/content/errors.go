package content

import (
	"fmt"

	"github.com/google/uuid"
)

// StageError records which per-idea stage failed.
type StageError struct {
	Stage  string
	IdeaID uuid.UUID
	Err    error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: idea %s: %v", e.Stage, e.IdeaID, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
