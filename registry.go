// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"sort"
	"time"
)

// playingSound is one active sound instance: the collection it was played
// from, the channel it occupies, and when it started. Holding an entry
// keeps the owning bus's sound counter raised; every removal path must go
// through the registry so the counter is released exactly once.
type playingSound struct {
	collection *SoundCollection
	channel    ChannelID
	startTime  time.Duration

	// gain is the last value pushed to the channel, remembered so Stop
	// can skip the fade when the channel is already silent.
	gain float32
}

// comparePlaying ranks two active entries: stream beats non-stream, then
// higher definition priority, then the more recently started entry (newer
// sounds evict older sounds of equal priority). Negative means a outranks b.
func comparePlaying(a, b *playingSound) int {
	result := compareSoundDefs(&a.collection.def, &b.collection.def)
	if result != 0 {
		return result
	}
	switch {
	case a.startTime > b.startTime:
		return -1
	case a.startTime < b.startTime:
		return 1
	default:
		return 0
	}
}

// soundRegistry tracks every active sound instance across channels. It is
// the sole authority on eviction order and on bus sound counters.
type soundRegistry struct {
	sounds []playingSound
}

func (r *soundRegistry) len() int { return len(r.sounds) }

// insert records a new active sound and raises its bus counter.
func (r *soundRegistry) insert(ps playingSound) {
	ps.collection.bus.incrementSoundCounter()
	r.sounds = append(r.sounds, ps)
}

// eraseFinished removes every entry whose channel the backend no longer
// reports as playing, preserving the relative order of the remainder.
// Called before every new play attempt to reclaim capacity.
func (r *soundRegistry) eraseFinished(playing func(ChannelID) bool) {
	kept := r.sounds[:0]
	for _, ps := range r.sounds {
		if playing(ps.channel) {
			kept = append(kept, ps)
		} else {
			ps.collection.bus.decrementSoundCounter()
		}
	}
	r.sounds = kept
}

// eraseStreams removes all stream-slot entries. Used when a new stream
// preempts the previous one; the backend allows only one.
func (r *soundRegistry) eraseStreams() {
	kept := r.sounds[:0]
	for _, ps := range r.sounds {
		if !ps.channel.IsStream() {
			kept = append(kept, ps)
		} else {
			ps.collection.bus.decrementSoundCounter()
		}
	}
	r.sounds = kept
}

// prioritize sorts entries with the highest-ranked first. The last entry
// after sorting is the eviction candidate.
func (r *soundRegistry) prioritize() {
	sort.Slice(r.sounds, func(i, j int) bool {
		return comparePlaying(&r.sounds[i], &r.sounds[j]) < 0
	})
}

// weakest returns the lowest-ranked entry. Only meaningful directly after
// prioritize.
func (r *soundRegistry) weakest() *playingSound {
	if len(r.sounds) == 0 {
		return nil
	}
	return &r.sounds[len(r.sounds)-1]
}

// removeWeakest drops the lowest-ranked entry and releases its bus counter.
func (r *soundRegistry) removeWeakest() {
	if len(r.sounds) == 0 {
		return
	}
	last := len(r.sounds) - 1
	r.sounds[last].collection.bus.decrementSoundCounter()
	r.sounds = r.sounds[:last]
}

// clear drops every entry, releasing all bus counters. Used at shutdown.
func (r *soundRegistry) clear() {
	for i := range r.sounds {
		r.sounds[i].collection.bus.decrementSoundCounter()
	}
	r.sounds = r.sounds[:0]
}

// find returns the entry occupying the given channel, or nil.
func (r *soundRegistry) find(ch ChannelID) *playingSound {
	for i := range r.sounds {
		if r.sounds[i].channel == ch {
			return &r.sounds[i]
		}
	}
	return nil
}
