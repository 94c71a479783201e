package model

import "time"

// DefaultSports seeds a freshly created store.
var DefaultSports = []string{"pickleball", "handball", "table-tennis"}

// Document is the persisted layout of the whole store. It is read and written
// as one unit.
type Document struct {
	Users       []User    `json:"users"`
	Games       []Game    `json:"games"`
	Sports      []string  `json:"sports"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewDocument returns an empty document with the default sports.
func NewDocument() *Document {
	sports := make([]string, len(DefaultSports))
	copy(sports, DefaultSports)
	return &Document{
		Users:       []User{},
		Games:       []Game{},
		Sports:      sports,
		LastUpdated: time.Now().UTC(),
	}
}
