package models

// Candidate is one identity service search result
type Candidate struct {
	Title     string
	Year      int
	Primary   *int
	Secondary *int
}
