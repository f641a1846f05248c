package editor

import "github.com/matzehuels/netdraw/pkg/diagram"

// DefaultHistoryLimit is how many undo steps an editor keeps.
const DefaultHistoryLimit = 40

// history holds document snapshots. Both stacks are bounded; the oldest
// snapshot is dropped first.
type history struct {
	limit int
	undo  []*diagram.Document
	redo  []*diagram.Document
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

// push records d, which the caller no longer mutates, and discards the redo
// branch.
func (h *history) push(d *diagram.Document) {
	h.undo = appendBounded(h.undo, d, h.limit)
	h.redo = nil
}

func (h *history) canUndo() bool { return len(h.undo) > 0 }
func (h *history) canRedo() bool { return len(h.redo) > 0 }

// stepBack returns the previous document and records cur for redo.
func (h *history) stepBack(cur *diagram.Document) (*diagram.Document, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = appendBounded(h.redo, cur, h.limit)
	return prev, true
}

// stepForward returns the next document and records cur for undo.
func (h *history) stepForward(cur *diagram.Document) (*diagram.Document, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = appendBounded(h.undo, cur, h.limit)
	return next, true
}

func (h *history) clear() {
	h.undo, h.redo = nil, nil
}

func appendBounded(s []*diagram.Document, d *diagram.Document, limit int) []*diagram.Document {
	s = append(s, d)
	if len(s) > limit {
		s = append(s[:0:0], s[len(s)-limit:]...)
	}
	return s
}
