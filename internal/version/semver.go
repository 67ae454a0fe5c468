// Package version implements per-rule semantic versioning: version-string
// arithmetic, append-only changelog history with pre-mutation snapshots,
// per-field diffs between historical versions, and rollback that extends
// history instead of rewriting it.
package version

import (
	"fmt"
	"strconv"
	"strings"

	modsemver "golang.org/x/mod/semver"
)

// Bump selects which semver component an increment raises.
type Bump string

const (
	BumpMajor Bump = "major"
	BumpMinor Bump = "minor"
	BumpPatch Bump = "patch"
)

// ValidateBump returns an error if the bump kind is not recognized.
func ValidateBump(b Bump) error {
	switch b {
	case BumpMajor, BumpMinor, BumpPatch:
		return nil
	}
	return fmt.Errorf("invalid version bump %q: must be one of: major, minor, patch", b)
}

// Parse splits a plain "major.minor.patch" version string into numeric
// components. Rule versions carry no "v" prefix and no pre-release or
// build suffix.
func Parse(v string) (major, minor, patch int, err error) {
	if !modsemver.IsValid("v" + v) {
		return 0, 0, 0, fmt.Errorf("malformed version %q: want major.minor.patch", v)
	}
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed version %q: want major.minor.patch", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("malformed version %q: component %q is not a number", v, p)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

// Compare orders two versions numerically by component: −1 when a < b,
// 0 when equal, 1 when a > b. Malformed input is reported rather than
// compared lexicographically.
func Compare(a, b string) (int, error) {
	if _, _, _, err := Parse(a); err != nil {
		return 0, err
	}
	if _, _, _, err := Parse(b); err != nil {
		return 0, err
	}
	return modsemver.Compare("v"+a, "v"+b), nil
}

// Increment bumps the chosen component and zeroes the lower ones:
// Increment("1.2.3", BumpMajor) == "2.0.0".
func Increment(v string, bump Bump) (string, error) {
	if err := ValidateBump(bump); err != nil {
		return "", err
	}
	major, minor, patch, err := Parse(v)
	if err != nil {
		return "", err
	}
	switch bump {
	case BumpMajor:
		return fmt.Sprintf("%d.0.0", major+1), nil
	case BumpMinor:
		return fmt.Sprintf("%d.%d.0", major, minor+1), nil
	default:
		return fmt.Sprintf("%d.%d.%d", major, minor, patch+1), nil
	}
}
