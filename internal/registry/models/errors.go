package models

import dErrors "podium/pkg/domain-errors"

// Error kinds of the registry. Each carries the taxonomy code the transport
// layer maps to a status; the kind distinguishes failures within a code.
var (
	ErrEmptyName               = dErrors.NewKind(dErrors.CodeValidation, "empty_name", "name cannot be empty")
	ErrEmptySport              = dErrors.NewKind(dErrors.CodeValidation, "empty_sport", "sport cannot be empty")
	ErrInvalidAge              = dErrors.NewKind(dErrors.CodeValidation, "invalid_age", "age must be between 1 and 99")
	ErrEmptyTitle              = dErrors.NewKind(dErrors.CodeValidation, "empty_title", "title cannot be empty")
	ErrCallerAlreadyRegistered = dErrors.NewKind(dErrors.CodeConflict, "caller_already_registered", "caller already has a registered athlete")
	ErrAthleteNotFound         = dErrors.NewKind(dErrors.CodeNotFound, "athlete_not_found", "athlete not found")
	ErrAchievementNotFound     = dErrors.NewKind(dErrors.CodeNotFound, "achievement_not_found", "achievement not found")
	ErrAthleteInactive         = dErrors.NewKind(dErrors.CodeForbidden, "athlete_inactive", "athlete is inactive")
	ErrUnauthorized            = dErrors.NewKind(dErrors.CodeForbidden, "unauthorized", "caller is not authorized for this operation")
)

// KindOf returns the registry error kind carried by err, or "" when err is not
// a registry error.
func KindOf(err error) string {
	return dErrors.KindOf(err)
}
