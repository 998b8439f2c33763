// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelConverter adapts a source's channel count to a target layout.
// Mono input is duplicated across output channels; multi-channel input is
// averaged down to mono first when the target is narrower. Matching layouts
// pass through untouched.
type ChannelConverter struct {
	src      Source
	channels int
	tmp      []float32
}

func NewChannelConverter(src Source, channels int) *ChannelConverter {
	return &ChannelConverter{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}
}

func (c *ChannelConverter) SampleRate() int { return c.src.SampleRate() }
func (c *ChannelConverter) Channels() int   { return c.channels }
func (c *ChannelConverter) BufSize() int    { return c.src.BufSize() }

func (c *ChannelConverter) Close() error {
	if err := c.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (c *ChannelConverter) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%c.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	srcChannels := c.src.Channels()
	if srcChannels == c.channels {
		return c.src.ReadSamples(dst)
	}

	frames := len(dst) / c.channels
	needed := frames * srcChannels

	if cap(c.tmp) < needed {
		c.tmp = make([]float32, needed)
	}
	c.tmp = c.tmp[:needed]

	n, err := c.src.ReadSamples(c.tmp)
	if n == 0 {
		return 0, err
	}
	gotFrames := n / srcChannels

	invSrc := float32(1.0) / float32(srcChannels)
	for f := 0; f < gotFrames; f++ {
		// Mix the source frame down to a single value, then spread it
		// across the output channels. Mono in, stereo out is the common
		// case and reduces to plain duplication.
		var mixed float32
		base := f * srcChannels
		if srcChannels == 1 {
			mixed = c.tmp[base]
		} else {
			var sum float32
			for ch := 0; ch < srcChannels; ch++ {
				sum += c.tmp[base+ch]
			}
			mixed = sum * invSrc
		}

		out := f * c.channels
		for ch := 0; ch < c.channels; ch++ {
			dst[out+ch] = mixed
		}
	}

	return gotFrames * c.channels, err
}
