package models

import "time"

// Identity holds the canonical Simkl identifiers of a title
type Identity struct {
	Simkl int `json:"simkl"`
	TMDB  int `json:"tmdb"`
}

// MediaEntry is one movie or show in the backup document
type MediaEntry struct {
	Title  string    `json:"title"`
	Rating *float64  `json:"rating"`
	Year   Year      `json:"year"`
	Status Status    `json:"to"`
	IDs    *Identity `json:"ids"`
}

// Backup is the document written to OUTPUT_FILE
type Backup struct {
	Movies []MediaEntry `json:"movies"`
	Shows  []MediaEntry `json:"shows"`
}

// NewBackup returns a backup with non-nil lists so it serializes as arrays
func NewBackup() Backup {
	return Backup{
		Movies: []MediaEntry{},
		Shows:  []MediaEntry{},
	}
}

// Len returns the total number of entries
func (b Backup) Len() int {
	return len(b.Movies) + len(b.Shows)
}

// FailedLookup records one unsuccessful resolution attempt
type FailedLookup struct {
	Title     string    `json:"title"`
	Year      string    `json:"year"`
	Category  Category  `json:"category"`
	Error     string    `json:"error_message"`
	Timestamp time.Time `json:"timestamp"`
}

// Key identifies the lookup independent of when or why it failed
func (f FailedLookup) Key() string {
	return LookupKey(f.Title, f.Year, f.Category)
}

// LookupKey builds the key used to match sticky failures and memoized resolutions
func LookupKey(title, year string, category Category) string {
	return string(category) + "|" + year + "|" + title
}
