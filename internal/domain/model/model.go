// Package model contains the value types shared across the rating system.
package model

import "fmt"

// User is an account that owns a set of named ratings.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Rateable is a named, typed item a user is building a relative ranking
// for. Value is nil until the item has been placed in the ordering at
// least once. Identity is (user, lower(name), type).
type Rateable struct {
	ID     int64    `json:"id"`
	UserID int64    `json:"user_id"`
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Value  *float64 `json:"value,omitempty"`
}

// Rated reports whether the item has been placed in the ordering.
func (r Rateable) Rated() bool {
	return r.Value != nil
}

func (r Rateable) String() string {
	if r.Value == nil {
		return fmt.Sprintf("%s:%s (unrated)", r.Name, r.Type)
	}
	return fmt.Sprintf("%s:%s (%.2f)", r.Name, r.Type, *r.Value)
}

// Probe is a candidate comparison target that has not been answered yet.
// It is a separate type from Outcome on purpose: an unanswered probe must
// never be mistakable for a resolved comparison.
type Probe struct {
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	Index    int    `json:"index"`
}

// Outcome is one answered comparison. Preferred reports whether the user
// preferred the existing peer at Index over the item being rated.
type Outcome struct {
	ItemID    int64 `json:"item_id"`
	Index     int   `json:"index"`
	Preferred bool  `json:"preferred"`
}

// Session is the live state of one in-progress binary-search insertion.
// Peers is sorted ascending by value at session start and never re-sorted;
// the probe index arithmetic depends on it staying fixed. Outcomes is
// append-only.
type Session struct {
	Item     Rateable   `json:"item"`
	Peers    []Rateable `json:"peers"`
	Outcomes []Outcome  `json:"outcomes"`
}

// Clone returns a deep copy of the session so cached state cannot be
// mutated through a caller-held reference.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := &Session{Item: s.Item}
	if s.Peers != nil {
		c.Peers = make([]Rateable, len(s.Peers))
		copy(c.Peers, s.Peers)
	}
	if s.Outcomes != nil {
		c.Outcomes = make([]Outcome, len(s.Outcomes))
		copy(c.Outcomes, s.Outcomes)
	}
	return c
}
