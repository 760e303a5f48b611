// Package queries contains read operations for retrieving system state.
// Handlers run raw SQL through GORM and return read models shaped for the API,
// bypassing the aggregates.
package queries

import (
	"encoding/json"
	"errors"
	"strings"

	"artfactory/internal/pkg/errs"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Page is a limit/offset window. A zero limit selects DefaultPageSize.
type Page struct {
	Limit  int
	Offset int
}

func newPage(limit, offset int) (Page, error) {
	var problems []error
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxPageSize {
		problems = append(problems, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxPageSize))
	}
	if offset < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("offset", offset, 0, "unbounded"))
	}
	if err := errors.Join(problems...); err != nil {
		return Page{}, err
	}
	return Page{Limit: limit, Offset: offset}, nil
}

func decodeParameters(raw []byte) (map[string]any, error) {
	params := make(map[string]any)
	if len(raw) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	metadata := make(map[string]string)
	if len(raw) == 0 {
		return metadata, nil
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// likePattern escapes LIKE wildcards in term and wraps it for a contains match.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
