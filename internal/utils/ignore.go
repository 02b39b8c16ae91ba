package utils

import (
	"bufio"
	"os"
	"strings"
)

// IgnoreList holds title terms that are left out of the backup
type IgnoreList struct {
	terms []string
}

// NewIgnoreList builds an ignore list from in-memory terms
func NewIgnoreList(terms ...string) *IgnoreList {
	l := &IgnoreList{}
	for _, term := range terms {
		if term = strings.TrimSpace(term); term != "" {
			l.terms = append(l.terms, FoldTitle(term))
		}
	}
	return l
}

// LoadIgnoreList loads ignore terms from a file, one per line
func LoadIgnoreList(path string) (*IgnoreList, error) {
	// A missing file means nothing is ignored
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &IgnoreList{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var terms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term != "" && !strings.HasPrefix(term, "#") {
			terms = append(terms, term)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewIgnoreList(terms...), nil
}

// Matches checks if a title contains any ignore term
// Returns (matched, matchedTerm)
func (l *IgnoreList) Matches(title string) (bool, string) {
	if l == nil {
		return false, ""
	}
	folded := FoldTitle(title)
	for _, term := range l.terms {
		if strings.Contains(folded, term) {
			return true, term
		}
	}
	return false, ""
}

// Len returns the number of loaded terms
func (l *IgnoreList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.terms)
}
