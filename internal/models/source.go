package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SourceItem is one raw item returned by the taste.io catalog
type SourceItem struct {
	Name            string     `json:"name"`
	Year            Year       `json:"year"`
	Category        string     `json:"category"`
	Genre           Tags       `json:"genre,omitempty"`
	HighlightRating *float64   `json:"highlightRating,omitempty"`
	Slug            string     `json:"slug"`
	Season          int        `json:"season,omitempty"`
	Episode         int        `json:"episode,omitempty"`
	User            *UserState `json:"user,omitempty"`
}

// UserState is the per-user block attached to catalog items
type UserState struct {
	Rating  *float64 `json:"rating,omitempty"`
	Tracked bool     `json:"tracked,omitempty"`
}

// SourceRating returns highlightRating, falling back to user.rating
func (s SourceItem) SourceRating() *float64 {
	if s.HighlightRating != nil {
		return s.HighlightRating
	}
	if s.User != nil {
		return s.User.Rating
	}
	return nil
}

// Page is one offset/limit page of a catalog listing
type Page struct {
	Total int          `json:"total"`
	Items []SourceItem `json:"items"`
}

// Year keeps the catalog's form of a year, which arrives either as a number or a string
type Year string

// UnmarshalJSON accepts numbers, strings and null
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid year %s: %w", string(data), err)
	}
	*y = Year(n.String())
	return nil
}

// MarshalJSON writes integral years as numbers and anything else as a string
func (y Year) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(y)); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(y))
}

// String returns the year as received
func (y Year) String() string {
	return string(y)
}

// Tags is a genre list; the catalog sends either plain strings or objects with a name
type Tags []string

// UnmarshalJSON accepts ["Drama"] as well as [{"name": "Drama"}]
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tags := make(Tags, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			tags = append(tags, s)
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			Title string `json:"title"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			return fmt.Errorf("invalid genre tag %s: %w", string(r), err)
		}
		if obj.Name != "" {
			tags = append(tags, obj.Name)
		} else if obj.Title != "" {
			tags = append(tags, obj.Title)
		}
	}
	*t = tags
	return nil
}
