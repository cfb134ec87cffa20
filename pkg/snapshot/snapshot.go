// Package snapshot builds the per-request set of locally derivable values
// (identity, user agent, geolocation) keyed by data option.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// ErrUnknownOption is returned for options outside the tag table.
var ErrUnknownOption = errors.New("snapshot: unknown data option")

// Snapshot maps every known data option to its resolved value. Unset values
// are empty strings, never absent.
type Snapshot map[capabilities.DataOption]string

// New returns a snapshot with every option present and empty.
func New() Snapshot {
	s := make(Snapshot, len(capabilities.Options()))
	for _, option := range capabilities.Options() {
		s[option] = ""
	}
	return s
}

// Lookup returns the value of option.
func (s Snapshot) Lookup(option capabilities.DataOption) (string, error) {
	if !capabilities.Known(option) {
		return "", fmt.Errorf("%w: %s", ErrUnknownOption, option)
	}
	return s[option], nil
}

// Set stores value for a known option; unknown options are ignored.
func (s Snapshot) Set(option capabilities.DataOption, value string) {
	if capabilities.Known(option) {
		s[option] = value
	}
}

// Value is the mapping shared by the render and submission phases. Unknown
// options are logged and read as empty.
func Value(s Snapshot, option capabilities.DataOption, log logger.Logger) string {
	v, err := s.Lookup(option)
	if err != nil {
		logger.OrNop(log).Error("snapshot: undefined option requested", logger.Field{Key: "option", Value: string(option)})
		return ""
	}
	return v
}
