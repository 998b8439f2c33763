// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// LoopSource replays its underlying source indefinitely. When the source
// reaches EOF it is rewound (if it implements Rewinder) or reopened through
// the provided callback. A LoopSource therefore never returns io.EOF unless
// the source cannot be restarted or produces no samples at all.
type LoopSource struct {
	src    Source
	reopen func() (Source, error)

	// pendingRestart defers a restart to the next read when the source hit
	// EOF exactly at a buffer boundary.
	pendingRestart bool
}

// NewLoopSource wraps src for endless playback. reopen may be nil when the
// source is rewindable; it is used for streamed sources that must be
// reopened from their backing file.
func NewLoopSource(src Source, reopen func() (Source, error)) *LoopSource {
	return &LoopSource{src: src, reopen: reopen}
}

func (l *LoopSource) SampleRate() int { return l.src.SampleRate() }
func (l *LoopSource) Channels() int   { return l.src.Channels() }
func (l *LoopSource) BufSize() int    { return l.src.BufSize() }
func (l *LoopSource) Close() error    { return l.src.Close() }

// restart rewinds or reopens the underlying source.
func (l *LoopSource) restart() error {
	if rw, ok := l.src.(Rewinder); ok {
		return rw.Rewind()
	}
	if l.reopen == nil {
		return ErrNotRewindable
	}

	if err := l.src.Close(); err != nil {
		return fmt.Errorf("closing exhausted source: %w", err)
	}
	src, err := l.reopen()
	if err != nil {
		return fmt.Errorf("reopening source: %w", err)
	}
	l.src = src
	return nil
}

func (l *LoopSource) ReadSamples(dst []float32) (int, error) {
	written := 0
	// Samples read since the last restart; an EOF with no progress means
	// the source yields nothing and looping must stop instead of spinning.
	progressed := false

	if l.pendingRestart {
		l.pendingRestart = false
		if err := l.restart(); err != nil {
			return 0, io.EOF
		}
	}

	for written < len(dst) {
		n, err := l.src.ReadSamples(dst[written:])
		written += n
		if n > 0 {
			progressed = true
		}

		switch {
		case err == io.EOF:
			if !progressed {
				if written == 0 {
					return 0, io.EOF
				}
				return written, io.EOF
			}
			if written == len(dst) {
				l.pendingRestart = true
				return written, nil
			}
			if restartErr := l.restart(); restartErr != nil {
				return written, io.EOF
			}
			progressed = false
		case err != nil:
			return written, err
		case n == 0:
			// Source temporarily empty; let the caller retry.
			return written, nil
		}
	}

	return written, nil
}
