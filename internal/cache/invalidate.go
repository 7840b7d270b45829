// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

package cache

import (
	"context"
	"errors"

	"github.com/ruz-tools/ruzgate/internal/logging"
)

// Invalidator coordinates invalidation across every managed store.
type Invalidator struct {
	stores []Store
}

// NewInvalidator wraps the given stores. The order only affects log
// output.
func NewInvalidator(stores ...Store) *Invalidator {
	return &Invalidator{stores: stores}
}

// ClearAll empties every store. Failures on one store do not stop the
// others; the joined error reports everything that went wrong.
func (inv *Invalidator) ClearAll(ctx context.Context) error {
	var errs []error
	for _, s := range inv.stores {
		if err := s.Clear(ctx); err != nil {
			logging.Ctx(ctx).Error().
				Err(err).
				Str("cache", s.Name()).
				Msg("cache clear failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearGroup removes entries tied to one group id across every store and
// returns the total number removed. Entries for other groups and
// default-schedule entries are untouched.
func (inv *Invalidator) ClearGroup(ctx context.Context, groupID string) (int, error) {
	token := GroupToken(groupID)

	removed := 0
	var errs []error
	for _, s := range inv.stores {
		n, err := s.DeleteByToken(ctx, token)
		if err != nil {
			logging.Ctx(ctx).Error().
				Err(err).
				Str("cache", s.Name()).
				Str("group", groupID).
				Msg("group invalidation failed")
			errs = append(errs, err)
			continue
		}
		removed += n
	}
	return removed, errors.Join(errs...)
}
