package runner

import (
	"context"
	"testing"
	"time"
)

func TestRunCapturesStdoutAndReturnCode(t *testing.T) {
	res, err := Run(context.Background(), "echo hello", 2*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Timeout {
		t.Error("unexpected timeout")
	}
	if res.ReturnCode == nil || *res.ReturnCode != 0 {
		t.Errorf("ReturnCode = %v, want 0", res.ReturnCode)
	}
	if res.Stdout != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
}

func TestRunCapturesNonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), "false", 2*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ReturnCode == nil || *res.ReturnCode != 1 {
		t.Errorf("ReturnCode = %v, want 1", res.ReturnCode)
	}
}

func TestRunEnforcesTimeout(t *testing.T) {
	res, err := Run(context.Background(), "sleep 5", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Timeout {
		t.Error("expected timeout")
	}
	if res.ReturnCode != nil {
		t.Errorf("ReturnCode = %v, want nil", res.ReturnCode)
	}
	if res.Stderr != "Execution timed out" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
}

func TestRunUnknownBinarySurfacesExecutionError(t *testing.T) {
	_, err := Run(context.Background(), "this-binary-does-not-exist-anywhere", 2*time.Second)
	if _, ok := err.(*ExecutionError); !ok {
		t.Fatalf("err = %v (%T), want *ExecutionError", err, err)
	}
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), "   ", 2*time.Second)
	if _, ok := err.(*ExecutionError); !ok {
		t.Fatalf("err = %v (%T), want *ExecutionError", err, err)
	}
}
