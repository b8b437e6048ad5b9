package vad

import "testing"

func TestEnergy(t *testing.T) {
	e := NewEnergy()

	tests := []struct {
		name        string
		sensitivity int
		level       int16
		want        bool
	}{
		{"silence", 0, 0, false},
		{"quiet passes low sensitivity", 0, 300, true},
		{"quiet rejected at high sensitivity", 3, 300, false},
		{"loud passes high sensitivity", 3, 3000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.Configure(16000, tt.sensitivity); err != nil {
				t.Fatal(err)
			}
			got, err := e.IsSpeech(chunkOf(tt.level))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("IsSpeech = %v, want %v", got, tt.want)
			}
		})
	}

	if err := e.Configure(16000, MaxSensitivity+1); err == nil {
		t.Error("expected error for out of range sensitivity")
	}
}

func TestNewClassifier(t *testing.T) {
	if c, err := NewClassifier("energy", ""); err != nil {
		t.Fatal(err)
	} else if _, ok := c.(*Energy); !ok {
		t.Errorf("energy engine built %T", c)
	}

	if _, err := NewClassifier("silero", ""); err == nil {
		t.Error("silero without model succeeded")
	}
	if _, err := NewClassifier("magic", ""); err == nil {
		t.Error("unknown engine succeeded")
	}
}
