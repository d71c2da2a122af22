package alert

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
)

const sampleRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

type note struct {
	freq float64
	dur  time.Duration
}

var chimeNotes = []note{
	{freq: 880, dur: 150 * time.Millisecond},
	{freq: 0, dur: 80 * time.Millisecond},
	{freq: 660, dur: 220 * time.Millisecond},
}

// chimeStreamer builds the two tone chime played when a break starts.
func chimeStreamer() (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(chimeNotes))

	for _, n := range chimeNotes {
		samples := sampleRate.N(n.dur)

		if n.freq == 0 {
			parts = append(parts, beep.Silence(samples))
			continue
		}

		tone, err := generators.SineTone(sampleRate, n.freq)
		if err != nil {
			return nil, err
		}

		parts = append(parts, beep.Take(samples, tone))
	}

	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   -2,
	}, nil
}

func playChime() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	})

	if speakerErr != nil {
		return speakerErr
	}

	s, err := chimeStreamer()
	if err != nil {
		return err
	}

	done := make(chan struct{})

	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	<-done

	return nil
}
