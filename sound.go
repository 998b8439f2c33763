// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/ik5/audmix/audio"
)

// SampleDef is one playable variant of a sound: a sample file plus its own
// gain and selection weight.
type SampleDef struct {
	File string `json:"file"`

	// Gain is the sample-level gain multiplier. Zero or omitted means 1.
	Gain float32 `json:"gain,omitempty"`

	// Weight biases random variant selection. Zero or omitted means 1.
	Weight float32 `json:"weight,omitempty"`
}

// SoundDef is the immutable, shared definition of a playable sound as
// parsed from a sound bank file.
type SoundDef struct {
	Name string `json:"name"`

	// Bus names the mixing bus this sound is routed through.
	Bus string `json:"bus"`

	// Priority ranks this sound against others when channel capacity is
	// exhausted. Higher values win.
	Priority float32 `json:"priority"`

	// Stream marks this sound as streamed from disk rather than buffered.
	// At most one stream plays at a time, independent of buffered channels.
	Stream bool `json:"stream,omitempty"`

	// Loop makes playback repeat until the channel is stopped.
	Loop bool `json:"loop,omitempty"`

	// Gain is the definition-level gain multiplier. Zero or omitted
	// means 1.
	Gain float32 `json:"gain,omitempty"`

	Samples []SampleDef `json:"samples"`
}

// compareSoundDefs ranks two definitions for channel competition. It
// returns a negative value when a outranks b, positive when b outranks a,
// and zero on an exact tie. A stream always outranks a non-stream, since
// the single stream slot is exempt from buffered channel competition.
func compareSoundDefs(a, b *SoundDef) int {
	if a.Stream != b.Stream {
		if a.Stream {
			return -1
		}
		return 1
	}
	switch {
	case a.Priority > b.Priority:
		return -1
	case a.Priority < b.Priority:
		return 1
	default:
		return 0
	}
}

// sampleSource is a loaded sample variant. Buffered and streamed variants
// expose the same playback surface; the stream implementation ignores the
// channel argument by contract, because only one stream slot exists.
type sampleSource interface {
	play(m Mixer, ch ChannelID, loop bool) error
	setGain(m Mixer, ch ChannelID, gain float32)
	sampleGain() float32
	weight() float32
}

// bufferSample is a variant decoded fully into memory at bank load time.
type bufferSample struct {
	def  SampleDef
	clip *audio.Clip
}

func (s *bufferSample) play(m Mixer, ch ChannelID, loop bool) error {
	return m.PlayBuffer(int(ch), s.clip, loop)
}

func (s *bufferSample) setGain(m Mixer, ch ChannelID, gain float32) {
	m.SetChannelVolume(int(ch), gain)
}

func (s *bufferSample) sampleGain() float32 { return s.def.Gain }
func (s *bufferSample) weight() float32     { return s.def.Weight }

// streamSample is a variant decoded lazily from its backing file each time
// it is played.
type streamSample struct {
	def  SampleDef
	open func() (audio.Source, error)
}

func (s *streamSample) play(m Mixer, _ ChannelID, loop bool) error {
	src, err := s.open()
	if err != nil {
		return fmt.Errorf("opening stream %s: %w", s.def.File, err)
	}
	if loop {
		// Streamed sources restart by reopening their backing file, and
		// only this sample knows how. The backend gets an endless source
		// and no loop flag.
		return m.PlayStream(audio.NewLoopSource(src, s.open), false)
	}
	return m.PlayStream(src, loop)
}

func (s *streamSample) setGain(m Mixer, _ ChannelID, gain float32) {
	m.SetStreamVolume(gain)
}

func (s *streamSample) sampleGain() float32 { return s.def.Gain }
func (s *streamSample) weight() float32     { return s.def.Weight }

// SoundCollection is a loaded sound definition: the immutable SoundDef,
// its resolved bus, and its loaded sample variants. Collections are shared
// across sound banks and reference-counted; a collection is released only
// when every bank referencing it has been unloaded.
type SoundCollection struct {
	def     SoundDef
	bus     *Bus
	samples []sampleSource

	sumWeights float32
	refs       int
}

// Def returns the collection's immutable definition.
func (c *SoundCollection) Def() SoundDef { return c.def }

// Bus returns the mixing bus this collection is routed through.
func (c *SoundCollection) Bus() *Bus { return c.bus }

// selectSample picks a variant by weighted random selection: draw in
// [0, sum of weights), then walk the list subtracting weights until the
// draw is exhausted. Rounding drift falls back to the last variant.
func (c *SoundCollection) selectSample() sampleSource {
	selection := rand.Float32() * c.sumWeights
	for _, s := range c.samples {
		selection -= s.weight()
		if selection <= 0 {
			return s
		}
	}
	return c.samples[len(c.samples)-1]
}

// openSampleFile opens and decodes a sample file using the decoder
// registered for its extension.
func openSampleFile(path string, formats *audio.Registry) (audio.Source, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	dec, ok := formats.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownFormat, ext, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sample: %w", err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding sample %s: %w", path, err)
	}
	return &fileSource{Source: src, f: f}, nil
}

// fileSource ties a decoded source to its backing file so closing the
// source also closes the file.
type fileSource struct {
	audio.Source
	f *os.File
}

func (s *fileSource) Close() error {
	err := s.Source.Close()
	if closeErr := s.f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// newSoundCollection resolves a definition against the bus graph and loads
// its sample variants. Buffered variants are decoded into memory here;
// streamed variants only record how to open their file later.
func newSoundCollection(def SoundDef, buses map[string]*Bus, formats *audio.Registry) (*SoundCollection, error) {
	if len(def.Samples) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSamples, def.Name)
	}
	if def.Gain == 0 {
		def.Gain = 1
	}

	bus, ok := buses[def.Bus]
	if !ok {
		return nil, fmt.Errorf("%w: %q referenced by sound %q", ErrUnknownBus, def.Bus, def.Name)
	}

	c := &SoundCollection{
		def: def,
		bus: bus,
	}

	for _, sample := range def.Samples {
		if sample.Gain == 0 {
			sample.Gain = 1
		}
		if sample.Weight == 0 {
			sample.Weight = 1
		}

		if def.Stream {
			file := sample.File
			c.samples = append(c.samples, &streamSample{
				def: sample,
				open: func() (audio.Source, error) {
					return openSampleFile(file, formats)
				},
			})
		} else {
			src, err := openSampleFile(sample.File, formats)
			if err != nil {
				return nil, err
			}
			clip, err := audio.ReadClip(src)
			if err != nil {
				return nil, fmt.Errorf("loading sample %s: %w", sample.File, err)
			}
			c.samples = append(c.samples, &bufferSample{def: sample, clip: clip})
		}
		c.sumWeights += sample.Weight
	}

	return c, nil
}
