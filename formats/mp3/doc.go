// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MP3 files.
//
// # Supported Formats
//
// The decoder supports:
//   - MPEG-1 Layer 3 (standard MP3)
//   - Variable and constant bitrates
//   - Output is always stereo 16-bit
//
// # Decoding MP3 Files
//
// Use the Decoder to read MP3 files:
//
//	decoder := mp3.Decoder{}
//	file, _ := os.Open("audio.mp3")
//	source, err := decoder.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	// Read samples as float32 in range [-1.0, 1.0]
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// # Output Format
//
// MP3 decoder output:
//   - Sample format: float32 in range [-1.0, 1.0]
//   - Channels: Always 2 (go-mp3 upmixes mono files)
//   - Sample rate: Depends on file (commonly 44.1kHz or 48kHz)
//
// # In the Engine
//
// The engine registers this decoder for the "mp3" extension by default.
// MP3 decodes lazily, which makes it a good fit for streamed music tracks
// rather than short buffered effects.
package mp3
