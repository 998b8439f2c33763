// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/audmix"
)

// Device pushes a mixer's rendered PCM stream to the system audio output
// through oto. The device owns its own playback goroutine inside oto; the
// mixer's Read is called from there.
type Device struct {
	ctx    *oto.Context
	player *oto.Player
}

// OpenDevice opens the system audio output for the given format and starts
// pulling from src. src is usually a *SoftMixer.
//
// Only one oto context may exist per process; open a single device and
// share it.
func OpenDevice(cfg audmix.OutputConfig, src io.Reader) (*Device, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   cfg.Frequency,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	if cfg.BufferSize > 0 && cfg.Frequency > 0 {
		opts.BufferSize = time.Duration(cfg.BufferSize) * time.Second / time.Duration(cfg.Frequency)
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.Play()

	return &Device{ctx: ctx, player: player}, nil
}

// Playing reports whether the device is actively pulling audio.
func (d *Device) Playing() bool {
	return d.player.IsPlaying()
}

// Suspend stops pulling audio without closing the device.
func (d *Device) Suspend() error {
	if err := d.ctx.Suspend(); err != nil {
		return fmt.Errorf("suspending audio device: %w", err)
	}
	return nil
}

// Resume continues after Suspend.
func (d *Device) Resume() error {
	if err := d.ctx.Resume(); err != nil {
		return fmt.Errorf("resuming audio device: %w", err)
	}
	return nil
}

// Close stops playback and releases the device.
func (d *Device) Close() error {
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("closing audio device: %w", err)
	}
	return nil
}
