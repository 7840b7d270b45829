// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

// Package schedule reshapes raw upstream entries into the records the
// gateway serves: deduplicated filter options and filtered lesson lists.
// Every derived id comes from the same stable-id function, so an id seen
// in a filter listing always matches the id on the corresponding lesson.
package schedule

import (
	"sort"
	"strings"

	"github.com/ruz-tools/ruzgate/internal/cache"
	"github.com/ruz-tools/ruzgate/internal/models"
	"github.com/ruz-tools/ruzgate/internal/stableid"
)

// lecturerID prefers the upstream's own id and falls back to the stable
// id derived from the name.
func lecturerID(e models.ScheduleEntry) int64 {
	if e.LecturerOid > 0 {
		return e.LecturerOid
	}
	return stableid.FromName(e.Lecturer)
}

// lecturerRef is the nullable form of lecturerID: nil when the entry
// names no lecturer at all.
func lecturerRef(e models.ScheduleEntry) *int64 {
	if e.LecturerOid > 0 {
		id := e.LecturerOid
		return &id
	}
	return nameRef(e.Lecturer)
}

// nameRef derives a stable id from a name, or nil for an empty name.
func nameRef(name string) *int64 {
	if name == "" {
		return nil
	}
	id := stableid.FromName(name)
	return &id
}

// ShortName reduces a full name to "LastName I.I." form. The first token
// is kept whole; every following token contributes one initial.
func ShortName(full string) string {
	tokens := strings.Fields(full)
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(tokens[0])
	for _, tok := range tokens[1:] {
		b.WriteByte(' ')
		b.WriteString(string([]rune(tok)[:1]))
		b.WriteByte('.')
	}
	return b.String()
}

// BuildFilterOptions deduplicates the filterable values in a batch of
// entries. Two entries contribute one option when both the derived id
// and the name agree; options are sorted by name for stable output.
// In a person schedule the upstream includes co-taught records carrying
// other lecturers' ids; a non-zero personID drops those entries.
func BuildFilterOptions(entries []models.ScheduleEntry, personID int64) models.FilterOptions {
	type idName struct {
		id   int64
		name string
	}
	disciplines := make(map[idName]struct{})
	locations := make(map[idName]struct{})
	lecturers := make(map[idName]string) // value: short name

	for _, e := range entries {
		if e.Date == "" {
			continue
		}
		if personID != 0 && e.LecturerOid > 0 && e.LecturerOid != personID {
			continue
		}
		if e.Discipline != "" {
			disciplines[idName{stableid.FromName(e.Discipline), e.Discipline}] = struct{}{}
		}
		if e.Building != "" {
			locations[idName{stableid.FromName(e.Building), e.Building}] = struct{}{}
		}
		if e.Lecturer != "" {
			lecturers[idName{lecturerID(e), e.Lecturer}] = ShortName(e.Lecturer)
		}
	}

	out := models.FilterOptions{
		Disciplines: make([]models.FilterOption, 0, len(disciplines)),
		Locations:   make([]models.FilterOption, 0, len(locations)),
		Lecturers:   make([]models.LecturerOption, 0, len(lecturers)),
	}
	for k := range disciplines {
		out.Disciplines = append(out.Disciplines, models.FilterOption{ID: k.id, Name: k.name})
	}
	for k := range locations {
		out.Locations = append(out.Locations, models.FilterOption{ID: k.id, Name: k.name})
	}
	for k, short := range lecturers {
		out.Lecturers = append(out.Lecturers, models.LecturerOption{ID: k.id, Name: k.name, Short: short})
	}

	sort.Slice(out.Disciplines, func(i, j int) bool { return out.Disciplines[i].Name < out.Disciplines[j].Name })
	sort.Slice(out.Locations, func(i, j int) bool { return out.Locations[i].Name < out.Locations[j].Name })
	sort.Slice(out.Lecturers, func(i, j int) bool { return out.Lecturers[i].Name < out.Lecturers[j].Name })
	return out
}

// BuildLessons reshapes entries into lesson records, applying the filter
// allow-lists. A nil id list means no restriction on that dimension; an
// explicit empty list matches nothing.
func BuildLessons(entries []models.ScheduleEntry, filters cache.Filters) []models.Lesson {
	disciplineAllowed := allowSet(filters.DisciplineIDs)
	locationAllowed := allowSet(filters.LocationIDs)
	lecturerAllowed := allowSet(filters.LecturerIDs)

	lessons := make([]models.Lesson, 0, len(entries))
	for _, e := range entries {
		// Entries without a date or time range cannot form a lesson.
		if e.Date == "" || e.BeginLesson == "" || e.EndLesson == "" {
			continue
		}

		disciplineID := nameRef(e.Discipline)
		locationID := nameRef(e.Building)
		lectID := lecturerRef(e)

		if !allowed(disciplineAllowed, disciplineID) ||
			!allowed(locationAllowed, locationID) ||
			!allowed(lecturerAllowed, lectID) {
			continue
		}

		lessons = append(lessons, models.Lesson{
			Start:      e.Date + "T" + e.BeginLesson + "Z",
			End:        e.Date + "T" + e.EndLesson + "Z",
			KindOfWork: e.KindOfWork,
			LecturerInfo: models.LecturerInfo{
				LecturerID:        lectID,
				LecturerName:      e.Lecturer,
				LecturerNameShort: ShortName(e.Lecturer),
			},
			LocationInfo: models.LocationInfo{
				LocationID:   locationID,
				LocationName: e.Building,
				Cabinet:      e.Auditorium,
			},
			DisciplineInfo: models.DisciplineInfo{
				DisciplineID:   disciplineID,
				DisciplineName: e.Discipline,
			},
		})
	}
	return lessons
}

// allowSet converts an allow-list to a set, keeping the nil/empty
// distinction: nil means unrestricted.
func allowSet(ids []int64) map[int64]struct{} {
	if ids == nil {
		return nil
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// allowed reports whether an id passes an allow-list. A nil id never
// matches a non-nil list: an unnamed field cannot satisfy a filter.
func allowed(set map[int64]struct{}, id *int64) bool {
	if set == nil {
		return true
	}
	if id == nil {
		return false
	}
	_, ok := set[*id]
	return ok
}
