// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
	"github.com/ik5/audmix/utils"
)

func openTestMixer(t *testing.T, channels int) *SoftMixer {
	t.Helper()

	m := NewSoftMixer()
	err := m.Open(audmix.OutputConfig{Frequency: 8000, Channels: 1, BufferSize: 64})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	m.AllocateChannels(channels)
	return m
}

// makeClip decodes a constant-value mono source into a clip.
func makeClip(t *testing.T, frames int, value float32) *audio.Clip {
	t.Helper()

	clip, err := audio.ReadClip(audiotest.NewConstantSource(8000, 1, frames, value))
	if err != nil {
		t.Fatalf("ReadClip() error = %v", err)
	}
	return clip
}

// readFrames pulls n mono frames from the mixer and decodes them to int16.
func readFrames(t *testing.T, m *SoftMixer, n int) []int16 {
	t.Helper()

	p := make([]byte, n*2)
	got, err := m.Read(p)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != len(p) {
		t.Fatalf("Read() n = %d, want %d", got, len(p))
	}

	out := make([]int16, n)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(p[2*i:]))
	}
	return out
}

func TestSoftMixer_OpenTwice(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 2)
	err := m.Open(audmix.OutputConfig{Frequency: 8000, Channels: 1})
	if !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("Open() error = %v, want ErrAlreadyOpen", err)
	}
}

func TestSoftMixer_PlayBufferAppliesGain(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 2)
	clip := makeClip(t, 64, 0.5)

	m.SetChannelVolume(0, 0.5)
	if err := m.PlayBuffer(0, clip, false); err != nil {
		t.Fatalf("PlayBuffer() error = %v", err)
	}
	if !m.ChannelPlaying(0) {
		t.Fatal("ChannelPlaying(0) = false after PlayBuffer")
	}

	frames := readFrames(t, m, 32)
	// 0.5 sample * 0.5 gain = 0.25 full scale
	want := utils.Float32ToInt16(0.25)
	for i, s := range frames {
		if s < want-2 || s > want+2 {
			t.Fatalf("frames[%d] = %d, want ≈%d", i, s, want)
		}
	}
}

func TestSoftMixer_MixesVoices(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 2)

	m.SetChannelVolume(0, 1)
	m.SetChannelVolume(1, 1)
	if err := m.PlayBuffer(0, makeClip(t, 64, 0.25), false); err != nil {
		t.Fatalf("PlayBuffer(0) error = %v", err)
	}
	if err := m.PlayBuffer(1, makeClip(t, 64, 0.25), false); err != nil {
		t.Fatalf("PlayBuffer(1) error = %v", err)
	}

	frames := readFrames(t, m, 16)
	want := utils.Float32ToInt16(0.5)
	for i, s := range frames {
		if s < want-2 || s > want+2 {
			t.Fatalf("frames[%d] = %d, want ≈%d", i, s, want)
		}
	}
}

func TestSoftMixer_ClippingIsBounded(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 2)

	// Two full-scale voices sum to 2.0 and must clamp, not wrap.
	m.SetChannelVolume(0, 1)
	m.SetChannelVolume(1, 1)
	m.PlayBuffer(0, makeClip(t, 64, 1.0), false)
	m.PlayBuffer(1, makeClip(t, 64, 1.0), false)

	frames := readFrames(t, m, 16)
	for i, s := range frames {
		if s != 32767 {
			t.Fatalf("frames[%d] = %d, want 32767 (clamped)", i, s)
		}
	}
}

func TestSoftMixer_VoiceEndsWithClip(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	m.SetChannelVolume(0, 1)
	m.PlayBuffer(0, makeClip(t, 10, 0.5), false)

	frames := readFrames(t, m, 20)
	if m.ChannelPlaying(0) {
		t.Error("ChannelPlaying(0) = true after the clip ended")
	}
	// Past the clip end the output is silence.
	for i := 10; i < 20; i++ {
		if frames[i] != 0 {
			t.Errorf("frames[%d] = %d, want 0", i, frames[i])
		}
	}
}

func TestSoftMixer_LoopKeepsPlaying(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	m.SetChannelVolume(0, 1)
	m.PlayBuffer(0, makeClip(t, 4, 0.5), true)

	frames := readFrames(t, m, 32)
	for i, s := range frames {
		if s == 0 {
			t.Fatalf("frames[%d] = 0, want looped signal", i)
		}
	}
	if !m.ChannelPlaying(0) {
		t.Error("ChannelPlaying(0) = false, looping voice should keep playing")
	}
}

func TestSoftMixer_FadeOutStopsVoice(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	m.SetChannelVolume(0, 1)
	m.PlayBuffer(0, makeClip(t, 1000, 0.5), false)

	// 2ms at 8kHz is a 16 frame ramp.
	if err := m.FadeOutChannel(0, 2*time.Millisecond); err != nil {
		t.Fatalf("FadeOutChannel() error = %v", err)
	}

	frames := readFrames(t, m, 32)
	if m.ChannelPlaying(0) {
		t.Error("ChannelPlaying(0) = true after fade completed")
	}
	if frames[0] == 0 {
		t.Error("frames[0] = 0, fade should start audible")
	}
	for i := 17; i < 32; i++ {
		if frames[i] != 0 {
			t.Errorf("frames[%d] = %d, want 0 after fade", i, frames[i])
		}
	}
}

func TestSoftMixer_FadeOutNotPlaying(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	err := m.FadeOutChannel(0, time.Millisecond)
	if !errors.Is(err, ErrNotPlaying) {
		t.Errorf("FadeOutChannel() error = %v, want ErrNotPlaying", err)
	}
}

func TestSoftMixer_PauseProducesSilence(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	m.SetChannelVolume(0, 1)
	m.PlayBuffer(0, makeClip(t, 100, 0.5), false)

	m.PauseAll()
	frames := readFrames(t, m, 16)
	for i, s := range frames {
		if s != 0 {
			t.Fatalf("frames[%d] = %d, want 0 while paused", i, s)
		}
	}
	if !m.ChannelPlaying(0) {
		t.Error("ChannelPlaying(0) = false, pause must not consume the voice")
	}

	m.ResumeAll()
	frames = readFrames(t, m, 16)
	if frames[0] == 0 {
		t.Error("frames[0] = 0 after resume, want signal")
	}
}

func TestSoftMixer_Halt(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	m.SetChannelVolume(0, 1)
	m.PlayBuffer(0, makeClip(t, 100, 0.5), false)

	m.HaltChannel(0)
	if m.ChannelPlaying(0) {
		t.Error("ChannelPlaying(0) = true after halt")
	}
	if m.PlayingChannels() != 0 {
		t.Errorf("PlayingChannels() = %d, want 0", m.PlayingChannels())
	}
}

func TestSoftMixer_Stream(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	m.SetStreamVolume(1)
	err := m.PlayStream(audiotest.NewConstantSource(8000, 1, 100, 0.5), false)
	if err != nil {
		t.Fatalf("PlayStream() error = %v", err)
	}
	if !m.StreamPlaying() {
		t.Fatal("StreamPlaying() = false after PlayStream")
	}

	frames := readFrames(t, m, 16)
	want := utils.Float32ToInt16(0.5)
	if frames[0] < want-2 || frames[0] > want+2 {
		t.Errorf("frames[0] = %d, want ≈%d", frames[0], want)
	}

	m.HaltStream()
	if m.StreamPlaying() {
		t.Error("StreamPlaying() = true after halt")
	}
}

func TestSoftMixer_ResamplesToOutputRate(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	m.SetChannelVolume(0, 1)

	// 4kHz source into an 8kHz mixer goes through the resampler.
	clip, err := audio.ReadClip(audiotest.NewConstantSource(4000, 1, 100, 0.5))
	if err != nil {
		t.Fatalf("ReadClip() error = %v", err)
	}
	if err := m.PlayBuffer(0, clip, false); err != nil {
		t.Fatalf("PlayBuffer() error = %v", err)
	}

	frames := readFrames(t, m, 16)
	want := utils.Float32ToInt16(0.5)
	for i, s := range frames {
		if s < want-2000 || s > want+2000 {
			t.Fatalf("frames[%d] = %d, want ≈%d", i, s, want)
		}
	}
}

func TestSoftMixer_StereoOutput(t *testing.T) {
	t.Parallel()

	m := NewSoftMixer()
	if err := m.Open(audmix.OutputConfig{Frequency: 8000, Channels: 2, BufferSize: 64}); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	m.AllocateChannels(1)
	m.SetChannelVolume(0, 1)

	// Mono clip spreads to both output channels.
	clip, err := audio.ReadClip(audiotest.NewConstantSource(8000, 1, 64, 0.5))
	if err != nil {
		t.Fatalf("ReadClip() error = %v", err)
	}
	if err := m.PlayBuffer(0, clip, false); err != nil {
		t.Fatalf("PlayBuffer() error = %v", err)
	}

	p := make([]byte, 16*2*2)
	if _, err := m.Read(p); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := utils.Float32ToInt16(0.5)
	for f := 0; f < 16; f++ {
		left := int16(binary.LittleEndian.Uint16(p[4*f:]))
		right := int16(binary.LittleEndian.Uint16(p[4*f+2:]))
		if left < want-2 || left > want+2 || left != right {
			t.Fatalf("frame %d = (%d, %d), want both ≈%d", f, left, right, want)
		}
	}
}

func TestSoftMixer_InvalidChannel(t *testing.T) {
	t.Parallel()

	m := openTestMixer(t, 1)
	if err := m.PlayBuffer(5, makeClip(t, 10, 0.5), false); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("PlayBuffer(5) error = %v, want ErrInvalidChannel", err)
	}
	if err := m.PlayBuffer(0, nil, false); !errors.Is(err, ErrNilClip) {
		t.Errorf("PlayBuffer(nil clip) error = %v, want ErrNilClip", err)
	}
}

func TestSoftMixer_NotOpen(t *testing.T) {
	t.Parallel()

	m := NewSoftMixer()
	m.AllocateChannels(1)
	if err := m.PlayBuffer(0, nil, false); !errors.Is(err, ErrNotOpen) {
		t.Errorf("PlayBuffer() error = %v, want ErrNotOpen", err)
	}
}
