package event

import (
	"strings"

	"github.com/tidwall/match"
)

// Subscription narrows which resource identifiers a listener receives.
// The zero value is MatchAll.
type Subscription struct {
	pattern string
	terms   []string
	set     bool
}

// MatchAll accepts every notification, including those without a resource identifier.
var MatchAll = Subscription{}

// NewSubscription parses a comma separated list of glob terms ("orders.*",
// "svc-?"). Matching is case-insensitive. An empty pattern yields MatchAll.
func NewSubscription(pattern string) Subscription {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return MatchAll
	}

	var terms []string
	for _, term := range strings.Split(pattern, ",") {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, strings.ToLower(term))
		}
	}

	return Subscription{pattern: pattern, terms: terms, set: true}
}

// Pattern returns the pattern text, empty for MatchAll.
func (s Subscription) Pattern() string {
	return s.pattern
}

// IsMatchAll reports whether s is the NULL subscription.
func (s Subscription) IsMatchAll() bool {
	return !s.set
}

// Matches reports whether a notification about resourceID passes the filter.
// An absent (empty) resource identifier only passes MatchAll.
func (s Subscription) Matches(resourceID string) bool {
	if !s.set {
		return true
	}
	if resourceID == "" {
		return false
	}

	resourceID = strings.ToLower(resourceID)
	for _, term := range s.terms {
		if match.Match(resourceID, term) {
			return true
		}
	}
	return false
}

func (s Subscription) String() string {
	if !s.set {
		return "*"
	}
	return s.pattern
}

// Pair binds a listener to a subscription. The same listener registered under
// two different subscriptions forms two pairs.
type Pair struct {
	Listener     Listener
	Subscription Subscription
}

type pairKey struct {
	listener Listener
	pattern  string
	set      bool
}

func (p Pair) key() pairKey {
	return pairKey{
		listener: p.Listener,
		pattern:  p.Subscription.pattern,
		set:      p.Subscription.set,
	}
}

// Equal compares listener identity and subscription.
func (p Pair) Equal(other Pair) bool {
	return p.key() == other.key()
}
