// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	// ErrNotOpen is returned when the mixer is used before Open.
	ErrNotOpen = errors.New("mixer not open")

	// ErrAlreadyOpen is returned by Open on an open mixer.
	ErrAlreadyOpen = errors.New("mixer already open")

	// ErrInvalidConfig means the output configuration is unusable.
	ErrInvalidConfig = errors.New("invalid output config")

	// ErrInvalidChannel means the channel index is outside the allocated
	// range.
	ErrInvalidChannel = errors.New("invalid channel index")

	// ErrNotPlaying means the addressed channel has no active playback.
	ErrNotPlaying = errors.New("channel not playing")

	// ErrNilClip is returned when playback is requested with no data.
	ErrNilClip = errors.New("nil clip")
)
