package app

import (
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args []string
		want Command
	}{
		{[]string{}, CommandServe},
		{[]string{"serve"}, CommandServe},
		{[]string{"worker"}, CommandWorker},
		{[]string{"migrate"}, CommandMigrate},
		{[]string{"healthcheck"}, CommandHealthcheck},
		{[]string{"worker", "--flag", "value"}, CommandWorker},
	}

	for _, tt := range tests {
		got, err := ParseCommand(tt.args)
		if err != nil {
			t.Errorf("ParseCommand(%v) returned error: %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestParseCommand_UnknownReturnsUsage(t *testing.T) {
	_, err := ParseCommand([]string{"unknown"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "serve|worker|migrate|healthcheck") {
		t.Errorf("error should list commands: %v", err)
	}
}
