package playback

import "github.com/jmylchreest/tracknote/internal/model"

// HistoryCapacity is the number of tracks kept in history.
const HistoryCapacity = 50

// history is a fixed-capacity ring of recently played tracks.
// The oldest entry is overwritten once the ring is full.
type history struct {
	buf   [HistoryCapacity]model.PlaybackInfo
	start int
	n     int
}

// add appends info unless it is the same track as the newest entry.
func (h *history) add(info model.PlaybackInfo) bool {
	if last, ok := h.last(); ok && last.SameTrack(info) {
		return false
	}
	if h.n < HistoryCapacity {
		h.buf[(h.start+h.n)%HistoryCapacity] = info
		h.n++
		return true
	}
	h.buf[h.start] = info
	h.start = (h.start + 1) % HistoryCapacity
	return true
}

func (h *history) last() (model.PlaybackInfo, bool) {
	if h.n == 0 {
		return model.PlaybackInfo{}, false
	}
	return h.buf[(h.start+h.n-1)%HistoryCapacity], true
}

// items returns entries oldest first.
func (h *history) items() []model.PlaybackInfo {
	out := make([]model.PlaybackInfo, h.n)
	for i := range h.n {
		out[i] = h.buf[(h.start+i)%HistoryCapacity]
	}
	return out
}

func (h *history) reset() {
	*h = history{}
}
