// Package audio plays short tones when a target is touched or expires.
package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// DefaultSampleRate is used when a non-positive rate is configured.
const DefaultSampleRate = beep.SampleRate(44100)

const (
	touchFreq     = 880.0
	touchLength   = 120 * time.Millisecond
	expireFreq    = 220.0
	expireLength  = 250 * time.Millisecond
	toneAttenuate = -1.0 // base-2 exponent, halves amplitude
)

// Tone returns a sine tone of the given length, attenuated to half amplitude.
func Tone(rate beep.SampleRate, freq float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, fmt.Errorf("sine tone %vHz: %w", freq, err)
	}
	return &effects.Volume{
		Streamer: beep.Take(rate.N(d), sine),
		Base:     2,
		Volume:   toneAttenuate,
	}, nil
}

// Player mixes cue tones into the speaker. Until Init succeeds every cue is dropped.
type Player struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	mixer       *beep.Mixer
	initialized bool
}

// NewPlayer creates a player for sampleRate (Hz).
func NewPlayer(sampleRate int) *Player {
	rate := beep.SampleRate(sampleRate)
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Player{rate: rate, mixer: &beep.Mixer{}}
}

// Init opens the audio device.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Touched plays the high tone.
func (p *Player) Touched() {
	p.play(touchFreq, touchLength)
}

// Expired plays the low tone.
func (p *Player) Expired() {
	p.play(expireFreq, expireLength)
}

func (p *Player) play(freq float64, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	tone, err := Tone(p.rate, freq, d)
	if err != nil {
		slog.Warn("audio cue dropped", "freq", freq, "error", err)
		return
	}
	speaker.Lock()
	p.mixer.Add(tone)
	speaker.Unlock()
}

// Close stops playback and releases the device.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}
