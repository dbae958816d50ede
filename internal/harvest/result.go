package harvest

import (
	"encoding/json"
	"strconv"

	"github.com/skoobtools/estante/internal/auth"
)

// Item is one catalog entry exactly as the API returned it. The engine
// never validates item shape, it only counts and accumulates.
type Item map[string]any

// Result is a completed harvest. Item order is arrival order across
// pages. TotalPages and TotalItems carry the advisory values from the
// first page when they were supplied, otherwise the last page reached
// and the actual accumulated count; compare len(Items) against
// TotalItems to detect a shortfall.
type Result struct {
	TotalPages  int
	TotalItems  int
	YearsFilter any
	User        map[string]any
	Items       []Item

	// Truncated reports that a page-level error cut the harvest short
	// of the advisory item total. FailedPage and PageErr describe the
	// most recent page failure, recorded even when the harvest went on
	// to finish.
	Truncated  bool
	FailedPage int
	PageErr    error
}

// UserAccountID extracts the account identifier from the user
// descriptor embedded in an API response. The id arrives as a string
// on current accounts and as a number on legacy ones.
func UserAccountID(user map[string]any) auth.AccountID {
	switch id := user["id"].(type) {
	case string:
		return auth.AccountID(id)
	case json.Number:
		return auth.AccountID(id.String())
	case float64:
		return auth.AccountID(strconv.FormatFloat(id, 'f', -1, 64))
	}
	return ""
}
