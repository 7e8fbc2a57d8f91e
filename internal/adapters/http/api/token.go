package api

import (
	"fmt"
	"regexp"
	"strconv"
)

// Continuation tokens ride in component custom_id fields and carry the
// whole answer back on the next round trip, which is what keeps the
// transport stateless: subject_<id>_compared_<id>_index_<n>_pref_<yes|no>.
var tokenPattern = regexp.MustCompile(`^subject_([0-9]+)_compared_([0-9]+)_index_([0-9]+)_pref_(yes|no)$`)

// Token is one decoded answer-in-flight.
type Token struct {
	ItemID     int64
	ComparedID int64
	Index      int
	Preferred  bool
}

// EncodeToken renders an answer as a component custom_id.
func EncodeToken(itemID, comparedID int64, index int, preferred bool) string {
	pref := "no"
	if preferred {
		pref = "yes"
	}
	return fmt.Sprintf("subject_%d_compared_%d_index_%d_pref_%s", itemID, comparedID, index, pref)
}

// DecodeToken parses a component custom_id back into an answer.
func DecodeToken(customID string) (Token, error) {
	m := tokenPattern.FindStringSubmatch(customID)
	if m == nil {
		return Token{}, fmt.Errorf("%q: %w", customID, ErrMalformedToken)
	}
	itemID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%q: %w", customID, ErrMalformedToken)
	}
	comparedID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%q: %w", customID, ErrMalformedToken)
	}
	index, err := strconv.Atoi(m[3])
	if err != nil {
		return Token{}, fmt.Errorf("%q: %w", customID, ErrMalformedToken)
	}
	return Token{
		ItemID:     itemID,
		ComparedID: comparedID,
		Index:      index,
		Preferred:  m[4] == "yes",
	}, nil
}
