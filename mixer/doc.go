// SPDX-License-Identifier: EPL-2.0

// Package mixer provides the software mixing backend and audio output
// device for the engine.
//
// # SoftMixer
//
// SoftMixer renders all playing voices into a single interleaved 16-bit
// PCM stream. Each voice adapts its source to the output format on the
// fly: looping, cubic-interpolation resampling and channel layout
// conversion are chained in front of the raw sample source.
//
//	mix := mixer.NewSoftMixer()
//	engine := audmix.New(mix)
//
// The engine calls the control side (play, halt, volume, fade) from the
// game loop. The rendering side is the io.Reader returned stream; it is
// pulled by the output device from its own goroutine. Both sides are
// mutex-guarded.
//
// # Device
//
// Device connects a mixer to the system audio output using
// github.com/ebitengine/oto:
//
//	device, err := mixer.OpenDevice(mix.Config(), mix)
//	if err != nil {
//	    // no audio hardware available
//	}
//	defer device.Close()
//
// A Device is optional. Tests and offline rendering read from the
// SoftMixer directly, for example to capture output with wav.WriteWAV16.
//
// # Fade-Out
//
// FadeOutChannel and FadeOutStream ramp a voice's gain to zero linearly
// over the given duration, frame by frame, then stop the voice. The engine
// uses a short ramp on Stop so waveforms are not cut mid-swing.
package mixer
