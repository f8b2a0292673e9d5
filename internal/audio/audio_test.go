package audio

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s beep.Streamer) (total int, peak float64) {
	t.Helper()
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := range n {
			peak = math.Max(peak, math.Abs(buf[i][0]))
			assert.Equal(t, buf[i][0], buf[i][1], "mono tone on both channels")
		}
		total += n
		if !ok {
			return total, peak
		}
	}
}

func TestToneLengthAndAmplitude(t *testing.T) {
	t.Parallel()

	rate := beep.SampleRate(44100)
	tone, err := Tone(rate, 880, 100*time.Millisecond)
	require.NoError(t, err)

	total, peak := drain(t, tone)
	assert.Equal(t, rate.N(100*time.Millisecond), total)
	assert.LessOrEqual(t, peak, 0.5+1e-9)
	assert.Greater(t, peak, 0.4, "tone is audible")
}

func TestToneRejectsFrequencyAboveNyquist(t *testing.T) {
	t.Parallel()

	_, err := Tone(beep.SampleRate(8000), 5000, time.Millisecond)
	assert.Error(t, err)
}

func TestPlayerDropsCuesUntilInit(t *testing.T) {
	t.Parallel()

	p := NewPlayer(0)
	assert.Equal(t, DefaultSampleRate, p.rate)

	p.Touched()
	p.Expired()
	assert.Equal(t, 0, p.mixer.Len())

	p.Close() // no-op before Init
}
