package session

import "fmt"

// RecordingUnavailableError means no usable learner recording exists after the wait.
type RecordingUnavailableError struct {
	Path string
	Err  error
}

func (e *RecordingUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recording unavailable at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("File not found: %s", e.Path)
}

func (e *RecordingUnavailableError) Unwrap() error {
	return e.Err
}
