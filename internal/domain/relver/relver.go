// Package relver computes calendar release versions: a year.month
// series with an incrementing patch number derived from existing tags.
package relver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
)

// DevelopmentBuild is the build tag stamped between releases.
const DevelopmentBuild = "<development>"

const buildTagLength = 7

// Series returns the version series for the given instant: two-digit
// UTC year and month rendered as integers (2026-08 -> "26.8").
func Series(now time.Time) string {
	utc := now.UTC()
	return fmt.Sprintf("%d.%d", utc.Year()%100, int(utc.Month()))
}

// NextInSeries returns the next version in the series given the tags
// currently present in the repository. The patch number is one past the
// highest released patch of the series, or zero for a fresh series.
// Tag names that do not parse as versions are skipped.
func NextInSeries(tags []string, series, tagPrefix string) (semver.Version, error) {
	major, minor, err := splitSeries(series)
	if err != nil {
		return semver.Version{}, err
	}

	highest := -1
	for _, tag := range tags {
		version, ok := parseTag(tag, tagPrefix)
		if !ok {
			continue
		}
		if version.Major != major || version.Minor != minor {
			continue
		}
		if len(version.Pre) > 0 {
			continue
		}
		if int(version.Patch) > highest {
			highest = int(version.Patch)
		}
	}

	return semver.Version{Major: major, Minor: minor, Patch: uint64(highest + 1)}, nil
}

// BuildTag truncates a revision hash to the short form embedded in
// release metadata.
func BuildTag(revision string) string {
	trimmed := strings.TrimSpace(revision)
	if len(trimmed) > buildTagLength {
		return trimmed[:buildTagLength]
	}
	return trimmed
}

// Dev returns the development version string that follows a release:
// the next patch with a dev suffix, e.g. 26.8.4 -> "26.8.5.dev0".
func Dev(released semver.Version) string {
	return fmt.Sprintf("%d.%d.%d.dev0", released.Major, released.Minor, released.Patch+1)
}

func splitSeries(series string) (uint64, uint64, error) {
	yearPart, monthPart, found := strings.Cut(strings.TrimSpace(series), ".")
	if !found {
		return 0, 0, fmt.Errorf("invalid version series %q", series)
	}

	major, err := strconv.ParseUint(yearPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version series %q: %w", series, err)
	}

	minor, err := strconv.ParseUint(monthPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version series %q: %w", series, err)
	}

	return major, minor, nil
}

func parseTag(name, tagPrefix string) (semver.Version, bool) {
	normalized := strings.TrimSpace(name)
	normalized = strings.TrimPrefix(normalized, "refs/tags/")
	if tagPrefix != "" {
		if !strings.HasPrefix(normalized, tagPrefix) {
			return semver.Version{}, false
		}
		normalized = strings.TrimPrefix(normalized, tagPrefix)
	}
	if normalized == "" {
		return semver.Version{}, false
	}

	version, err := semver.Parse(normalized)
	if err != nil {
		return semver.Version{}, false
	}
	return version, true
}
