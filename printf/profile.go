package printf

import (
	"strings"

	"github.com/wippyai/baremetal-platform/errors"
)

// Profile selects how much of the directive grammar is honoured.
type Profile uint8

const (
	// ProfileMinimal scans flags, width and precision and discards them.
	ProfileMinimal Profile = iota
	// ProfilePadded honours the '-' and '0' flags, the field width and the
	// precision of %s.
	ProfilePadded
)

func (p Profile) String() string {
	if p == ProfilePadded {
		return "padded"
	}
	return "minimal"
}

// ParseProfile parses a profile name as produced by Profile.String.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(s) {
	case "", "minimal":
		return ProfileMinimal, nil
	case "padded":
		return ProfilePadded, nil
	}
	return ProfileMinimal, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Value(s).
		Detail("unknown printf profile %q", s).
		Build()
}
