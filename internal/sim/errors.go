package sim

import (
	"errors"
	"fmt"
)

// EpisodeTimeoutError is returned when an episode is terminated externally
// before it resolved.
type EpisodeTimeoutError struct {
	SampleID string
	Turn     int // manager turns completed before termination
	Err      error
}

func (e *EpisodeTimeoutError) Error() string {
	return fmt.Sprintf("episode %s aborted after %d turns: %v", e.SampleID, e.Turn, e.Err)
}

func (e *EpisodeTimeoutError) Unwrap() error {
	return e.Err
}

// IsEpisodeTimeout reports whether err is (or wraps) an EpisodeTimeoutError.
func IsEpisodeTimeout(err error) bool {
	var te *EpisodeTimeoutError
	return errors.As(err, &te)
}
