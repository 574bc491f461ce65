package logger

import "testing"

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		format    string
		debugMode bool
		wantErr   bool
	}{
		{"default json", "", false, false},
		{"json debug", FormatJSON, true, false},
		{"console", FormatConsole, false, false},
		{"unknown format", "xml", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, err := New(tt.format, tt.debugMode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if l == nil {
				return
			}
			if got := l.Core().Enabled(-1); got != tt.debugMode {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugMode)
			}
		})
	}
}

func TestSync_NilLogger(t *testing.T) {
	t.Parallel()
	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) error = %v", err)
	}
}
