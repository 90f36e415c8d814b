package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
)

func TestLogger_Levels(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name   string
		logger Logger
		log    func(l Logger)
		want   string
	}{
		{"info hidden by default", Logger{}, func(l Logger) { l.Infof("hello %d", 1) }, ""},
		{"info when verbose", Logger{Verbose: true}, func(l Logger) { l.Infof("hello %d", 1) }, "[info] hello 1\n"},
		{"debug hidden when only verbose", Logger{Verbose: true}, func(l Logger) { l.Debugf("x") }, ""},
		{"debug when debug", Logger{Debug: true}, func(l Logger) { l.Debugf("path=%s", "/a") }, "[debug] path=/a\n"},
		{"warn always", Logger{}, func(l Logger) { l.Warnf("careful") }, "[warn] careful\n"},
		{"error always", Logger{}, func(l Logger) { l.Errorf("failed: %v", "boom") }, "[error] failed: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logger.Out = &buf
			tt.log(tt.logger)
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
