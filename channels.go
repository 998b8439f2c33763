// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"github.com/sirupsen/logrus"
)

// channelAllocator hands out backend channels for new play requests. When
// no channel is free it arbitrates against the registry: the weakest
// active sound is evicted if and only if the new sound outranks it.
// Demand that loses arbitration is shed, never queued, so channel capacity
// is a hard bound.
type channelAllocator struct {
	mixer    Mixer
	registry *soundRegistry
}

// channelPlaying answers the liveness question for any channel id,
// buffered or stream.
func (a *channelAllocator) channelPlaying(ch ChannelID) bool {
	if ch.IsStream() {
		return a.mixer.StreamPlaying()
	}
	return a.mixer.ChannelPlaying(int(ch))
}

// findFreeChannel returns a channel for a new sound, or InvalidChannel
// when the buffered pool is exhausted. Stream requests always get the
// stream slot; the caller is responsible for halting whatever plays there.
func (a *channelAllocator) findFreeChannel(stream bool) ChannelID {
	if stream {
		return StreamChannel
	}

	allocated := a.mixer.AllocatedChannels()
	if a.mixer.PlayingChannels() < allocated {
		for ch := 0; ch < allocated; ch++ {
			if !a.mixer.ChannelPlaying(ch) {
				return ChannelID(ch)
			}
		}
	}
	return InvalidChannel
}

// resolveChannel finds a channel for the given definition: prune finished
// entries, take a free channel if one exists, otherwise evict the weakest
// active sound when the new one outranks it. Returns InvalidChannel when
// the request loses arbitration.
func (a *channelAllocator) resolveChannel(def *SoundDef) ChannelID {
	a.registry.eraseFinished(a.channelPlaying)

	ch := a.findFreeChannel(def.Stream)

	if ch == InvalidChannel {
		a.registry.prioritize()
		weakest := a.registry.weakest()
		if weakest == nil {
			return InvalidChannel
		}

		if compareSoundDefs(def, &weakest.collection.def) >= 0 {
			// Lower priority than everything currently playing.
			return InvalidChannel
		}

		// Take over the weakest sound's channel.
		ch = weakest.channel
		logrus.WithFields(logrus.Fields{
			"new_sound": def.Name,
			"victim":    weakest.collection.def.Name,
			"channel":   int(ch),
		}).Debug("Evicting lower priority sound")

		a.mixer.HaltChannel(int(ch))
		a.registry.removeWeakest()
	} else if ch == StreamChannel && a.mixer.StreamPlaying() {
		// Only one stream may play; preempt the current one.
		a.mixer.HaltStream()
		a.registry.eraseStreams()
	}

	return ch
}
