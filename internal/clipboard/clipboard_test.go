package clipboard

import (
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestClipboardError(t *testing.T) {
	err := NewClipboardError()

	if err.OS != runtime.GOOS {
		t.Errorf("Expected OS to be %s, got %s", runtime.GOOS, err.OS)
	}

	if err.Error() == "" {
		t.Error("Error message should not be empty")
	}

	var clipErr *ClipboardError
	if !errors.As(err, &clipErr) {
		t.Error("Should be able to unwrap as ClipboardError")
	}
}

func TestGetInstallInstructions(t *testing.T) {
	instructions := GetInstallInstructions()

	if instructions == "" {
		t.Error("Install instructions should not be empty")
	}

	switch runtime.GOOS {
	case "linux":
		if !strings.Contains(instructions, "xclip") {
			t.Error("Linux instructions should mention xclip")
		}
	case "darwin":
		if !strings.Contains(instructions, "pbcopy") {
			t.Error("macOS instructions should mention pbcopy")
		}
	}
}

func TestSystemSatisfiesWriter(t *testing.T) {
	var _ Writer = System{}
}
