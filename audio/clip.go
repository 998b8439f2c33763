// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Clip is a fully decoded PCM sample held in memory. A Clip is immutable
// and safe to share: every playback gets its own reader, so the same clip
// can sound on several channels at once.
type Clip struct {
	data       []float32
	sampleRate int
	channels   int
}

// ReadClip drains src into memory and returns the resulting Clip.
// The source is closed afterwards.
func ReadClip(src Source) (*Clip, error) {
	var data []float32
	buf := make([]float32, 4096)

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("reading clip data: %w", err)
		}
	}

	clip := &Clip{
		data:       data,
		sampleRate: src.SampleRate(),
		channels:   src.Channels(),
	}

	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("closing clip source: %w", err)
	}

	if len(clip.data) == 0 {
		return nil, ErrEmptySource
	}

	return clip, nil
}

func (c *Clip) SampleRate() int { return c.sampleRate }
func (c *Clip) Channels() int   { return c.channels }

// Frames returns the clip length in frames (samples per channel).
func (c *Clip) Frames() int { return len(c.data) / c.channels }

// NewReader returns an independent Source reading the clip from the start.
func (c *Clip) NewReader() *ClipReader {
	return &ClipReader{clip: c}
}

// ClipReader streams a Clip's samples. It implements Source and Rewinder.
type ClipReader struct {
	clip *Clip
	pos  int
}

func (r *ClipReader) SampleRate() int { return r.clip.sampleRate }
func (r *ClipReader) Channels() int   { return r.clip.channels }
func (r *ClipReader) BufSize() int    { return 4096 }
func (r *ClipReader) Close() error    { return nil }

func (r *ClipReader) Rewind() error {
	r.pos = 0
	return nil
}

func (r *ClipReader) ReadSamples(dst []float32) (int, error) {
	if r.pos >= len(r.clip.data) {
		return 0, io.EOF
	}

	n := copy(dst, r.clip.data[r.pos:])
	r.pos += n

	if r.pos >= len(r.clip.data) {
		return n, io.EOF
	}
	return n, nil
}
