// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level PCM primitives the mixing engine is
// built on.
//
// The building blocks:
//   - Source interface for streamed audio input
//   - Clip for fully decoded in-memory samples with independent readers
//   - Resampler for sample rate conversion (cubic interpolation)
//   - ChannelConverter for adapting channel layouts
//   - LoopSource for endless playback
//   - Registry for decoder registration by format key
//
// # Source Interface
//
// The Source interface is the foundation of all audio plumbing:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Decoders in the formats subpackages return Sources; processing stages
// wrap them, so a playback pipeline is an ordinary chain of Sources.
//
// # Clips
//
// Buffered sounds are decoded once into a Clip and then played from cheap
// per-channel readers:
//
//	clip, _ := audio.ReadClip(src)
//	reader := clip.NewReader() // one per simultaneous playback
//
// ClipReader implements Rewinder, so clips can loop without re-decoding.
//
// # Pipelines
//
// A source is adapted to an output device by chaining stages:
//
//	src = audio.NewResampler(src, 48000)
//	src = audio.NewChannelConverter(src, 2)
//	src = audio.NewLoopSource(src, nil)
//
// # Sample Format
//
// Audio samples are represented as float32 in the range [-1.0, 1.0]:
//   - 0.0 represents silence
//   - 1.0 represents maximum positive amplitude
//   - -1.0 represents maximum negative amplitude
//
// This normalized format makes it easy to process audio without worrying
// about bit depths and ensures no clipping during intermediate processing.
//
// # Error Handling
//
// Sources return io.EOF when no more data is available. Other errors
// indicate problems with the source or processing:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    if err == io.EOF {
//	        break // Normal end of stream
//	    }
//	    if err != nil {
//	        return err // Processing error
//	    }
//	    // Process n samples from buf
//	}
package audio
