// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

// Package models defines the data shapes crossing ruzgate's boundaries:
// raw upstream schedule entries, the reshaped lesson records served to
// clients, and filter-option listings.
package models

// ScheduleEntry is one raw record as returned by the upstream timetable
// API. Only the fields the gateway reads are declared; unknown fields
// are dropped on decode.
type ScheduleEntry struct {
	Date        string `json:"date"`
	BeginLesson string `json:"beginLesson"`
	EndLesson   string `json:"endLesson"`
	Discipline  string `json:"discipline"`
	KindOfWork  string `json:"kindOfWork"`
	Building    string `json:"building"`
	Auditorium  string `json:"auditorium"`
	Lecturer    string `json:"lecturer"`

	// LecturerOid is the upstream's own lecturer id. Zero when the
	// upstream omits it; a stable id derived from the name is used then.
	LecturerOid int64 `json:"lecturerOid"`
}

// Lesson is the reshaped schedule record served to clients.
type Lesson struct {
	Start          string         `json:"start"`
	End            string         `json:"end"`
	KindOfWork     string         `json:"kindOfWork,omitempty"`
	LecturerInfo   LecturerInfo   `json:"lecturerInfo"`
	LocationInfo   LocationInfo   `json:"locationInfo"`
	DisciplineInfo DisciplineInfo `json:"disciplineInfo"`
}

// LecturerInfo identifies the lecturer of a lesson. The id is nil when
// the upstream names no lecturer; it renders as JSON null so that
// unnamed lecturers never share a synthetic id.
type LecturerInfo struct {
	LecturerID        *int64 `json:"lecturerId"`
	LecturerName      string `json:"lecturerName"`
	LecturerNameShort string `json:"lecturerNameShort"`
}

// LocationInfo identifies where a lesson takes place. A nil id means
// the entry carried no building name.
type LocationInfo struct {
	LocationID   *int64 `json:"locationId"`
	LocationName string `json:"locationName"`
	Cabinet      string `json:"cabinet"`
}

// DisciplineInfo identifies the subject of a lesson. A nil id means
// the entry carried no discipline name.
type DisciplineInfo struct {
	DisciplineID   *int64 `json:"disciplineId"`
	DisciplineName string `json:"disciplineName"`
}

// FilterOption is one selectable value in a filter listing.
type FilterOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LecturerOption extends FilterOption with the short display name.
type LecturerOption struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Short string `json:"short"`
}

// FilterOptions is the deduplicated listing of filterable values for a
// date range.
type FilterOptions struct {
	Disciplines []FilterOption   `json:"disciplines"`
	Locations   []FilterOption   `json:"locations"`
	Lecturers   []LecturerOption `json:"lecturers"`
}

// SearchResult is one match from the upstream search endpoint.
type SearchResult struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Search result types, mirroring the upstream type parameter.
const (
	SearchTypeGroup    = "1"
	SearchTypeLecturer = "2"
)
