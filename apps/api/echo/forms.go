package echoapi

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/shule/core"
)

const presentFieldPrefix = "present_"

// parseDateField parses an optional YYYY-MM-DD value. Blank values yield the zero time.
func parseDateField(field, value string) (time.Time, error) {
	value = core.CleanString(value)
	if value == "" {
		return time.Time{}, nil
	}
	date, err := core.ParseDate(value)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: field, Error: "must be a date formatted as YYYY-MM-DD"})
	}
	return date, nil
}

// parsePresentIDs collects the student ids of `present_<id>=on` fields. Anything else counts as absent.
func parsePresentIDs(form url.Values) map[int64]bool {
	present := make(map[int64]bool)
	for key, vals := range form {
		if !strings.HasPrefix(key, presentFieldPrefix) || len(vals) == 0 || vals[0] != "on" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(key, presentFieldPrefix), 10, 64)
		if err != nil {
			continue
		}
		present[id] = true
	}
	return present
}

// parseID reads a positive integer id. Malformed ids resolve to 0, which matches no row.
func parseID(value string) int64 {
	id, err := strconv.ParseInt(core.CleanString(value), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
