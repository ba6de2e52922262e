// Package reconciler brings an asset's category links from the current set
// to a desired set with the minimum number of link writes.
package reconciler

import (
	"context"
	"sort"

	"figureit/internal/pkg/apperr"
	"figureit/internal/pkg/logger"
)

const msgCategoriesRequired = "please select at least one category"

// Delta is the link change needed to move from one category set to another.
// Both slices are ascending and free of duplicates.
type Delta struct {
	ToAdd    []int64 `json:"to_add"`
	ToRemove []int64 `json:"to_remove"`
}

func (d Delta) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Diff returns ToAdd = desired - current and ToRemove = current - desired.
func Diff(current, desired []int64) Delta {
	cur := toSet(current)
	want := toSet(desired)

	d := Delta{ToAdd: []int64{}, ToRemove: []int64{}}
	for id := range want {
		if _, ok := cur[id]; !ok {
			d.ToAdd = append(d.ToAdd, id)
		}
	}
	for id := range cur {
		if _, ok := want[id]; !ok {
			d.ToRemove = append(d.ToRemove, id)
		}
	}
	sortIDs(d.ToAdd)
	sortIDs(d.ToRemove)
	return d
}

// LinkWriter persists asset-category links. AddLinks must ignore pairs
// that already exist.
type LinkWriter interface {
	RemoveLinks(ctx context.Context, assetID int64, categoryIDs []int64) error
	AddLinks(ctx context.Context, assetID int64, categoryIDs []int64) error
}

type Reconciler struct {
	links LinkWriter
	log   *logger.Logger
}

func New(links LinkWriter, log *logger.Logger) *Reconciler {
	return &Reconciler{links: links, log: log}
}

// Apply removes stale links first, then adds missing ones. A failed
// addition after a successful removal is reported as partial; the removal
// is not rolled back.
func (r *Reconciler) Apply(ctx context.Context, assetID int64, current, desired []int64) (Delta, error) {
	if len(desired) == 0 {
		return Delta{}, apperr.Validation("reconciler.apply", msgCategoriesRequired)
	}

	d := Diff(current, desired)
	if d.Empty() {
		return d, nil
	}

	if len(d.ToRemove) > 0 {
		if err := r.links.RemoveLinks(ctx, assetID, d.ToRemove); err != nil {
			return d, apperr.Write("reconciler.remove", "Failed to update categories", err)
		}
	}
	if len(d.ToAdd) > 0 {
		if err := r.links.AddLinks(ctx, assetID, d.ToAdd); err != nil {
			if len(d.ToRemove) > 0 {
				r.log.Warn("category links partially updated",
					"asset_id", assetID, "removed", d.ToRemove, "failed_to_add", d.ToAdd, "error", err)
				return d, apperr.Write("reconciler.add", "Failed to update categories",
					apperr.Partial("reconciler.add", "some categories were removed but new ones failed to link", err))
			}
			return d, apperr.Write("reconciler.add", "Failed to update categories", err)
		}
	}
	return d, nil
}

func toSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
