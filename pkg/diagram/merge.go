package diagram

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/netdraw/pkg/errors"
)

// Mode selects how an imported document is applied to the live one.
type Mode string

// Apply modes.
const (
	// ModeReplace makes the imported document the live document.
	ModeReplace Mode = "replace"
	// ModeMerge folds the imported pages and elements into the live document.
	ModeMerge Mode = "merge"
)

// ConflictPolicy decides what happens when an imported element has the same
// ID as an existing element on the matching page.
type ConflictPolicy string

// Conflict policies.
const (
	// ConflictRename gives the imported element a fresh ID and rewrites the
	// imported connections that referenced it.
	ConflictRename ConflictPolicy = "rename"
	// ConflictKeep drops the imported element; the existing one wins.
	ConflictKeep ConflictPolicy = "keep"
	// ConflictOverwrite replaces the existing element in place.
	ConflictOverwrite ConflictPolicy = "overwrite"
)

// ParseMode parses an apply mode; the empty string means [ModeReplace].
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeMerge:
		return ModeMerge, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid import mode %q (must be 'replace' or 'merge')", s)
}

// ParseConflictPolicy parses a conflict policy; the empty string means
// [ConflictRename].
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case "", ConflictRename:
		return ConflictRename, nil
	case ConflictKeep, ConflictOverwrite:
		return ConflictPolicy(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid conflict policy %q (must be 'rename', 'keep', or 'overwrite')", s)
}

// MergeReport counts what a merge did.
type MergeReport struct {
	PagesAdded       int `json:"pagesAdded"`
	PagesMerged      int `json:"pagesMerged"`
	ElementsAdded    int `json:"elementsAdded"`
	ElementsRenamed  int `json:"elementsRenamed"`
	ElementsSkipped  int `json:"elementsSkipped"`
	ElementsReplaced int `json:"elementsReplaced"`
}

func (r MergeReport) String() string {
	return fmt.Sprintf("%d page(s) added, %d merged; %d element(s) added, %d renamed, %d skipped, %d replaced",
		r.PagesAdded, r.PagesMerged, r.ElementsAdded, r.ElementsRenamed, r.ElementsSkipped, r.ElementsReplaced)
}

// Merge folds src into dst in place. Pages are matched by ID; pages only in
// src are appended. src is not modified. The result is validated; on error
// dst may be partially merged, so callers merge into a clone.
func Merge(dst, src *Document, policy ConflictPolicy) (MergeReport, error) {
	var r MergeReport
	if dst == nil || src == nil {
		return r, errors.New(errors.ErrCodeInvalidInput, "merge requires two documents")
	}
	for _, sp := range src.Pages {
		if sp == nil {
			continue
		}
		dp := dst.Page(sp.ID)
		if dp == nil {
			dst.Pages = append(dst.Pages, sp.Clone())
			r.PagesAdded++
			r.ElementsAdded += len(sp.Elements)
			continue
		}
		mergePage(dp, sp, policy, &r)
		r.PagesMerged++
	}
	if err := Validate(dst); err != nil {
		return r, errors.Wrap(errors.ErrCodeConflict, err, "merged document is inconsistent")
	}
	return r, nil
}

func mergePage(dst, src *Page, policy ConflictPolicy, r *MergeReport) {
	renamed := make(map[string]string)
	if policy == ConflictRename {
		for _, e := range src.Elements {
			if dst.index(e.ID) >= 0 {
				renamed[e.ID] = uuid.NewString()
			}
		}
	}

	for _, e := range src.Elements {
		e = e.Clone()
		if e.IsConnection() {
			if id, ok := renamed[e.Source]; ok {
				e.Source = id
			}
			if id, ok := renamed[e.Target]; ok {
				e.Target = id
			}
		}

		i := dst.index(e.ID)
		switch {
		case i < 0:
			dst.Elements = append(dst.Elements, e)
			r.ElementsAdded++
		case policy == ConflictRename:
			e.ID = renamed[e.ID]
			dst.Elements = append(dst.Elements, e)
			r.ElementsRenamed++
		case policy == ConflictOverwrite:
			dst.Elements[i] = e
			r.ElementsReplaced++
		default:
			r.ElementsSkipped++
		}
	}
}
