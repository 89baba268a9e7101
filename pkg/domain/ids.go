// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strconv"
	"strings"

	dErrors "podium/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an AchievementID where an
// AthleteID is expected.
type (
	// AthleteID is assigned sequentially from 1; 0 means "unset".
	AthleteID uint64
	// AchievementID is sequential per athlete from 1. In verification requests
	// 0 targets the athlete record itself.
	AchievementID uint64
	// CallerID is the authenticated identity of whoever invoked an operation.
	CallerID string
)

// NoAthlete is returned for callers that never registered.
const NoAthlete AthleteID = 0

// AthleteItself is the achievement id that addresses the athlete record in Verify.
const AthleteItself AchievementID = 0

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseAthleteID(s string) (AthleteID, error) {
	n, err := parseUint(s, "athlete ID")
	return AthleteID(n), err
}

func ParseAchievementID(s string) (AchievementID, error) {
	n, err := parseUint(s, "achievement ID")
	return AchievementID(n), err
}

func ParseCallerID(s string) (CallerID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "caller ID cannot be empty")
	}
	return CallerID(s), nil
}

// String methods - for logging and debugging.

func (id AthleteID) String() string     { return strconv.FormatUint(uint64(id), 10) }
func (id AchievementID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id CallerID) String() string      { return string(id) }

// IsNil checks - used for service-layer validation.

func (id AthleteID) IsNil() bool { return id == 0 }
func (id CallerID) IsNil() bool  { return id == "" }

// parseUint is the shared validation logic.
// Note: zero is allowed here. Services decide whether 0 is a sentinel or a
// lookup miss so stores can return proper "not found" errors.
func parseUint(s, label string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return n, nil
}
