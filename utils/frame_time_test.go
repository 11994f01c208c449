package utils

import (
	"testing"
	"time"
)

func TestFrameToDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		frame      int64
		sampleRate int
		want       time.Duration
	}{
		{"zero frame", 0, 44100, 0},
		{"one second", 44100, 44100, time.Second},
		{"half second", 22050, 44100, 500 * time.Millisecond},
		{"zero rate", 1000, 0, 0},
		{"negative frame", -44100, 44100, -time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FrameToDuration(tt.frame, tt.sampleRate)
			if got != tt.want {
				t.Errorf("FrameToDuration(%d, %d) = %v, want %v",
					tt.frame, tt.sampleRate, got, tt.want)
			}
		})
	}
}

func TestDurationToFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		d          time.Duration
		sampleRate int
		want       int64
	}{
		{"zero", 0, 44100, 0},
		{"one second", time.Second, 44100, 44100},
		{"quarter second", 250 * time.Millisecond, 48000, 12000},
		{"rounds to nearest", time.Nanosecond * 11338, 44100, 1}, // ~0.5 frames rounds up
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DurationToFrame(tt.d, tt.sampleRate)
			if got != tt.want {
				t.Errorf("DurationToFrame(%v, %d) = %d, want %d",
					tt.d, tt.sampleRate, got, tt.want)
			}
		})
	}
}

func TestFrameDurationRoundTrip(t *testing.T) {
	t.Parallel()

	rates := []int{8000, 22050, 44100, 48000}
	frames := []int64{0, 1, 100, 44100, 1234567}

	for _, rate := range rates {
		for _, frame := range frames {
			got := DurationToFrame(FrameToDuration(frame, rate), rate)
			if got != frame {
				t.Errorf("round trip of frame %d at %d Hz = %d", frame, rate, got)
			}
		}
	}
}
