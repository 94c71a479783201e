// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a player profile.
//
// Users and games are deliberately decoupled: a Player entry on a game carries
// its own display name and is never validated against the users collection.
//
// Profile holds the free-form profile fields the frontend sends alongside the
// well-known ones (e.g. "bio", "favouriteSport").
type User struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone,omitempty"`
	SkillLevel string            `json:"skillLevel,omitempty"`
	Profile    map[string]string `json:"profile,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
