// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseParamsBodyWinsOverQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/clearCache?group=111111",
		strings.NewReader(`{"group":"154479"}`))

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	if got := params.String("group"); got != "154479" {
		t.Errorf("group = %q, want body value 154479", got)
	}
}

func TestParseParamsCoercesJSONNumbers(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/clearCache",
		strings.NewReader(`{"group":154479}`))

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	if got := params.String("group"); got != "154479" {
		t.Errorf("group = %q, want 154479", got)
	}
}

func TestParseParamsRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/getRUZ",
		strings.NewReader(`{"dateFrom": `))

	if _, err := parseParams(req); err == nil {
		t.Fatal("expected error for malformed JSON body")
	}
}

func TestIDListFromQueryCommaSeparated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/getRUZ?disciplineIds=3,1,%202", nil)

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	ids, err := params.IDList("disciplineIds")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %v, want 3 entries", ids)
	}
}

func TestIDListAbsentIsNil(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/getRUZ", nil)

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	ids, err := params.IDList("lecturerIds")
	if err != nil {
		t.Fatal(err)
	}
	if ids != nil {
		t.Errorf("ids = %v, want nil for absent parameter", ids)
	}
}

func TestFilterListsNestedObjectWinsOverFlat(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/getRUZ",
		strings.NewReader(`{"filters":{"disciplineIds":[1],"locationIds":[2,3]},"disciplineIds":[9]}`))

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	disciplines, locations, lecturers, err := params.FilterLists()
	if err != nil {
		t.Fatal(err)
	}
	if len(disciplines) != 1 || disciplines[0] != 1 {
		t.Errorf("disciplines = %v, want nested [1]", disciplines)
	}
	if len(locations) != 2 {
		t.Errorf("locations = %v, want [2 3]", locations)
	}
	if lecturers != nil {
		t.Errorf("lecturers = %v, want nil", lecturers)
	}
}

func TestFilterListsLegacyLecturerKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/getRUZ",
		strings.NewReader(`{"filters":{"eblanIds":[8027]}}`))

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	_, _, lecturers, err := params.FilterLists()
	if err != nil {
		t.Fatal(err)
	}
	if len(lecturers) != 1 || lecturers[0] != 8027 {
		t.Errorf("lecturers = %v, want [8027]", lecturers)
	}
}

func TestFilterListsFlatFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/getRUZ?lecturerIds=8027", nil)

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	_, _, lecturers, err := params.FilterLists()
	if err != nil {
		t.Fatal(err)
	}
	if len(lecturers) != 1 || lecturers[0] != 8027 {
		t.Errorf("lecturers = %v, want [8027]", lecturers)
	}
}

func TestFilterListsRejectsNonObjectFilters(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/getRUZ?filters=%5B1%2C2%5D", nil)

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := params.FilterLists(); err == nil {
		t.Fatal("expected error for non-object filters parameter")
	}
}

func TestIDListFromJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/getRUZ",
		strings.NewReader(`{"lecturerIds":[8027,65158071]}`))

	params, err := parseParams(req)
	if err != nil {
		t.Fatal(err)
	}
	ids, err := params.IDList("lecturerIds")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 8027 {
		t.Errorf("ids = %v, want [8027 65158071]", ids)
	}
}
