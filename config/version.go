package config

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareVersions compares two "major.minor.patch" strings (an optional
// leading "v" is ignored) and returns -1, 0 or 1.
func CompareVersions(v1, v2 string) (int, error) {
	a, err := semver(v1)
	if err != nil {
		return 0, err
	}
	b, err := semver(v2)
	if err != nil {
		return 0, err
	}
	for i := range a {
		switch {
		case a[i] > b[i]:
			return 1, nil
		case a[i] < b[i]:
			return -1, nil
		}
	}
	return 0, nil
}

// SameMajor reports whether two versions share a major version.
func SameMajor(v1, v2 string) (bool, error) {
	a, err := semver(v1)
	if err != nil {
		return false, err
	}
	b, err := semver(v2)
	if err != nil {
		return false, err
	}
	return a[0] == b[0], nil
}

func semver(v string) ([3]int, error) {
	major, minor, patch, err := parseSemVer(v)
	if err != nil {
		return [3]int{}, fmt.Errorf("invalid version %q: %w", v, err)
	}
	return [3]int{major, minor, patch}, nil
}

func parseSemVer(version string) (int, int, int, error) {
	if version == "" {
		return 0, 0, 0, fmt.Errorf("version cannot be empty")
	}
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want major.minor.patch, got %q", version)
	}
	var out [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("bad component %q", p)
		}
		out[i] = n
	}
	return out[0], out[1], out[2], nil
}
