package liveset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a Live release triple parsed from the set's Creator attribute.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 ordering v against other lexicographically by
// component.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	return sign(v.Patch - other.Patch)
}

// AtLeast reports whether v satisfies a minimum supported version. Equal
// triples satisfy.
func (v Version) AtLeast(minimum Version) bool {
	return v.Compare(minimum) >= 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// creatorPattern matches "Ableton Live 10.1.30", "Ableton Live 9.7" and the
// beta form "Ableton Live 11.0b5". A trailing beta component maps to patch 0
// with the beta flag raised.
var creatorPattern = regexp.MustCompile(`Ableton Live ([0-9]{1,2})\.([0-9]{1,3})[.b]?([0-9]{1,3})?`)

// ParseCreator extracts the version triple from a Creator string. beta is
// true when the release carries a beta marker, which is advisory: commands
// still run but may misbehave on beta schemas.
func ParseCreator(creator string) (version Version, beta bool, err error) {
	match := creatorPattern.FindStringSubmatch(creator)
	if match == nil {
		return Version{}, false, &VersionParseError{Creator: creator}
	}

	beta = strings.Contains(lastField(creator), "b")

	version.Major, err = strconv.Atoi(match[1])
	if err != nil {
		return Version{}, false, &VersionParseError{Creator: creator}
	}
	version.Minor, err = strconv.Atoi(match[2])
	if err != nil {
		return Version{}, false, &VersionParseError{Creator: creator}
	}
	if match[3] != "" && !beta {
		version.Patch, err = strconv.Atoi(match[3])
		if err != nil {
			return Version{}, false, &VersionParseError{Creator: creator}
		}
	}
	return version, beta, nil
}

func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
