package models

import id "podium/pkg/domain"

// Request bodies accepted by the HTTP layer. The validate tags bound field
// sizes only; empty and range checks stay with the registry so it reports its
// own error kinds.

type RegisterAthleteRequest struct {
	Name    string `json:"name" validate:"max=128"`
	Sport   string `json:"sport" validate:"max=128"`
	Age     int    `json:"age"`
	Country string `json:"country" validate:"max=128"`
}

type AddAchievementRequest struct {
	Title       string `json:"title" validate:"max=256"`
	Description string `json:"description" validate:"max=2048"`
}

// VerifyRequest targets the athlete itself when AchievementID is 0.
type VerifyRequest struct {
	AchievementID id.AchievementID `json:"achievement_id"`
}

type AthleteIDResponse struct {
	AthleteID id.AthleteID `json:"athlete_id"`
}

type AchievementIDResponse struct {
	AchievementID id.AchievementID `json:"achievement_id"`
}

type TotalResponse struct {
	Total uint64 `json:"total"`
}

type AchievementListResponse struct {
	Achievements []*Achievement `json:"achievements"`
}

type EventListResponse struct {
	Events  []*Event `json:"events"`
	NextSeq uint64   `json:"next_after"`
}

type RegistryInfoResponse struct {
	Owner         id.CallerID `json:"owner"`
	TotalAthletes uint64      `json:"total_athletes"`
}
