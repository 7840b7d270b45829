// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FilterOptionsRequest are the validated parameters for /api/getFilterOptions.
type FilterOptionsRequest struct {
	DateFrom string `validate:"required"`
	DateTo   string `validate:"required"`
	Group    string `validate:"omitempty,number"`
	Lecturer string `validate:"omitempty,number"`
	// Upstream language codes: 1 is Russian, 3 is English.
	Lang string `validate:"omitempty,oneof=1 3"`
}

// RUZRequest are the validated parameters for /api/getRUZ. A nil id
// slice leaves that dimension unrestricted.
type RUZRequest struct {
	DateFrom      string `validate:"required"`
	DateTo        string `validate:"required"`
	DisciplineIDs []int64
	LocationIDs   []int64
	LecturerIDs   []int64
}

// SearchRequest are the validated parameters for /api/search.
type SearchRequest struct {
	SearchString string `validate:"required,min=2"`
	Type         string `validate:"omitempty,oneof=1 2"`
}

// ClearCacheRequest are the validated parameters for /api/clearCache.
// An empty Group clears everything.
type ClearCacheRequest struct {
	Group string `validate:"omitempty,number"`
}

// requestParams reads parameters from the query string and, on POST,
// from a JSON body. The original service accepted both verbs on its
// read endpoints, so both are kept working here.
type requestParams struct {
	values url.Values
	body   map[string]json.RawMessage
}

// parseParams collects parameters from the request. A malformed JSON
// body on POST is an error; a missing body is not.
func parseParams(r *http.Request) (*requestParams, error) {
	p := &requestParams{values: r.URL.Query()}

	if r.Method == http.MethodPost && r.Body != nil && r.ContentLength != 0 {
		body := make(map[string]json.RawMessage)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("malformed JSON body: %w", err)
		}
		p.body = body
	}
	return p, nil
}

// String returns a parameter as a string. Body values win over query
// values; JSON numbers are accepted where ids arrive unquoted.
func (p *requestParams) String(name string) string {
	if raw, ok := p.body[name]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return p.values.Get(name)
}

// FilterLists reads the getRUZ id allow-lists. The primary form is a
// nested filters object, sent as a JSON object in a POST body or as a
// JSON-encoded "filters" query parameter; flat disciplineIds,
// locationIds and lecturerIds parameters are accepted when no filters
// object is present. Inside the object, eblanIds is recognized as the
// legacy spelling of lecturerIds.
func (p *requestParams) FilterLists() (disciplines, locations, lecturers []int64, err error) {
	nested, ok, err := p.filtersObject()
	if err != nil {
		return nil, nil, nil, err
	}
	source := p
	if ok {
		source = &requestParams{body: nested}
	}

	if disciplines, err = source.IDList("disciplineIds"); err != nil {
		return nil, nil, nil, err
	}
	if locations, err = source.IDList("locationIds"); err != nil {
		return nil, nil, nil, err
	}
	if lecturers, err = source.IDList("lecturerIds"); err != nil {
		return nil, nil, nil, err
	}
	if lecturers == nil && ok {
		if lecturers, err = source.IDList("eblanIds"); err != nil {
			return nil, nil, nil, err
		}
	}
	return disciplines, locations, lecturers, nil
}

// filtersObject extracts the nested filters object when the request
// carries one. Its absence is not an error; malformed JSON is.
func (p *requestParams) filtersObject() (map[string]json.RawMessage, bool, error) {
	var raw json.RawMessage
	if b, ok := p.body["filters"]; ok {
		raw = b
	} else if s := p.values.Get("filters"); s != "" {
		raw = json.RawMessage(s)
	} else {
		return nil, false, nil
	}

	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false, fmt.Errorf("filters must be a JSON object")
	}
	return obj, true, nil
}

// IDList returns a parameter as a list of int64 ids. In a JSON body it
// is an array of numbers; in the query string a comma-separated list.
// An absent parameter returns nil, which callers treat as unrestricted.
func (p *requestParams) IDList(name string) ([]int64, error) {
	if raw, ok := p.body[name]; ok {
		var ids []int64
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, fmt.Errorf("%s must be an array of numeric ids", name)
		}
		return ids, nil
	}

	value := p.values.Get(name)
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s contains a non-numeric id %q", name, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
