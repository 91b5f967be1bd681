package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RollingID is the reserved identifier of the always-open current season.
const RollingID = "2m"

// SeasonGroup is the descriptor group rotation operates on. Seasons in other
// groups (all-time boards, special events) are never rotated.
const SeasonGroup = "seasons"

// SeasonID distinguishes the rolling season from permanently archived ones.
// Archived seasons carry a sequential number and render as "s07".
type SeasonID struct {
	rolling  bool
	sequence int
}

func RollingSeasonID() SeasonID {
	return SeasonID{rolling: true}
}

func ArchivedSeasonID(sequence int) SeasonID {
	return SeasonID{sequence: sequence}
}

// ParseSeasonID accepts the rolling sentinel "2m" or an archived id of the
// form "sNN". Anything else is an error.
func ParseSeasonID(s string) (SeasonID, error) {
	if s == RollingID {
		return RollingSeasonID(), nil
	}
	if rest, ok := strings.CutPrefix(s, "s"); ok {
		seq, err := strconv.Atoi(rest)
		if err == nil && seq > 0 {
			return ArchivedSeasonID(seq), nil
		}
	}
	return SeasonID{}, fmt.Errorf("invalid season id %q", s)
}

func (id SeasonID) IsRolling() bool {
	return id.rolling
}

// Sequence returns the archived sequence number, or 0 for the rolling season.
func (id SeasonID) Sequence() int {
	return id.sequence
}

func (id SeasonID) String() string {
	if id.rolling {
		return RollingID
	}
	return fmt.Sprintf("s%02d", id.sequence)
}
