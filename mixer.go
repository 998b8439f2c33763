// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"time"

	"github.com/ik5/audmix/audio"
)

// ChannelID identifies a playback slot on the mixer backend. Buffered
// channels use small non-negative integers; the single stream slot and
// "no channel" are distinguished sentinels outside that range.
type ChannelID int

const (
	// InvalidChannel means no channel was assigned.
	InvalidChannel ChannelID = -1

	// StreamChannel is the single logical stream slot. It is independent
	// of the buffered channel pool; at most one stream plays at a time.
	StreamChannel ChannelID = -100
)

// IsStream reports whether the id denotes the stream slot.
func (c ChannelID) IsStream() bool { return c == StreamChannel }

// Valid reports whether the id denotes an actual playback slot.
func (c ChannelID) Valid() bool { return c != InvalidChannel }

// OutputConfig describes the output format a Mixer is opened with.
type OutputConfig struct {
	// Frequency is the output sample rate in Hz.
	Frequency int
	// Channels is the output channel count (1=mono, 2=stereo).
	Channels int
	// BufferSize is the mixing buffer length in frames.
	BufferSize int
}

// Mixer is the playback backend contract. The engine never touches audio
// hardware or decodes samples on its own; it issues control calls against
// this interface and trusts the implementation to make them safe against
// its own output thread.
//
// Buffered channels are addressed by index. The stream slot is addressed
// through the dedicated *Stream methods; it is singular by contract.
type Mixer interface {
	// Open prepares the backend for playback with the given output format.
	Open(cfg OutputConfig) error
	// Close tears the backend down. All playback stops.
	Close()

	// AllocateChannels sets the number of buffered channels.
	AllocateChannels(n int)
	// AllocatedChannels returns the buffered channel capacity.
	AllocatedChannels() int
	// PlayingChannels returns how many buffered channels are playing.
	PlayingChannels() int

	// ChannelPlaying reports whether the buffered channel is playing.
	ChannelPlaying(ch int) bool
	// StreamPlaying reports whether the stream slot is playing.
	StreamPlaying() bool

	// PlayBuffer starts an in-memory clip on a buffered channel.
	PlayBuffer(ch int, clip *audio.Clip, loop bool) error
	// PlayStream starts a streamed source on the stream slot.
	PlayStream(src audio.Source, loop bool) error

	// SetChannelVolume sets a buffered channel's gain in [0,1].
	SetChannelVolume(ch int, gain float32)
	// SetStreamVolume sets the stream slot's gain in [0,1].
	SetStreamVolume(gain float32)

	// HaltChannel stops a buffered channel immediately.
	HaltChannel(ch int)
	// HaltStream stops the stream slot immediately.
	HaltStream()

	// FadeOutChannel ramps a buffered channel to silence over d, then
	// stops it. Fails when the channel is not playing.
	FadeOutChannel(ch int, d time.Duration) error
	// FadeOutStream ramps the stream slot to silence over d, then stops it.
	FadeOutStream(d time.Duration) error

	// PauseAll suspends all playback; ResumeAll continues it.
	PauseAll()
	ResumeAll()
}
