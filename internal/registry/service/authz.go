package service

import (
	"podium/internal/registry/models"
	id "podium/pkg/domain"
)

// isOwner reports whether caller is the registry owner.
func (s *Service) isOwner(caller id.CallerID) bool {
	return !caller.IsNil() && caller == s.owner
}

// isOwnerOrAthlete reports whether caller may act on the athlete's record:
// the registry owner or the caller that registered the athlete.
func (s *Service) isOwnerOrAthlete(caller id.CallerID, athlete *models.Athlete) bool {
	return s.isOwner(caller) || athlete.IsOwnedBy(caller)
}
