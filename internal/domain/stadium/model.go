package stadium

import (
	"fmt"
	"strings"
)

// Stadium is a ballpark. Rows are created lazily the first time a schedule
// entry names a venue no stored stadium matches.
type Stadium struct {
	ID             string
	Name           string
	WeatherKeyword string
}

func (s Stadium) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("stadium id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("stadium name is required")
	}

	return nil
}

// Matches reports whether a stored stadium name and a reported name refer to
// the same venue: either one contains the other, ignoring case and
// surrounding whitespace.
func Matches(stored, reported string) bool {
	a := strings.ToLower(strings.TrimSpace(stored))
	b := strings.ToLower(strings.TrimSpace(reported))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// BestMatch picks the candidate that best matches name. An exact
// (case-insensitive) match wins, otherwise the longest matching stored name.
func BestMatch(candidates []Stadium, name string) (Stadium, bool) {
	var (
		best  Stadium
		found bool
	)
	for _, candidate := range candidates {
		if !Matches(candidate.Name, name) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(candidate.Name), strings.TrimSpace(name)) {
			return candidate, true
		}
		if !found || len(candidate.Name) > len(best.Name) {
			best = candidate
			found = true
		}
	}
	return best, found
}
