// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package command

// HistorySize is the number of commands retained; the oldest is evicted.
const HistorySize = 5

// History is a bounded command history with up/down navigation. Not
// concurrency-safe; it belongs to the single operator input path.
type History struct {
	entries []string
	index   int
}

func NewHistory() *History {
	return &History{}
}

// Add appends a command, evicting the oldest once full, and resets the
// navigation cursor past the newest entry.
func (h *History) Add(line string) {
	if len(h.entries) < HistorySize {
		h.entries = append(h.entries, line)
	} else {
		copy(h.entries, h.entries[1:])
		h.entries[HistorySize-1] = line
	}
	h.index = len(h.entries)
}

// Prev moves the cursor toward older entries and returns the entry there.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.index > 0 {
		h.index--
	}
	return h.entries[h.index], true
}

// Next moves the cursor toward newer entries. Moving past the newest entry
// returns false, meaning the input line should be cleared.
func (h *History) Next() (string, bool) {
	if len(h.entries) == 0 || h.index >= len(h.entries) {
		return "", false
	}
	if h.index < len(h.entries)-1 {
		h.index++
		return h.entries[h.index], true
	}
	h.index = len(h.entries)
	return "", false
}

// Entries returns the stored history, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
