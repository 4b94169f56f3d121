// Package clipboard writes prompt text to the system clipboard.
package clipboard

import (
	"fmt"
	"runtime"

	"github.com/atotto/clipboard"
)

// Writer puts text on a clipboard
type Writer interface {
	WriteAll(text string) error
}

// System writes to the operating system clipboard
type System struct{}

// WriteAll copies text to the system clipboard
func (System) WriteAll(text string) error {
	return Copy(text)
}

// ClipboardError represents an error when no clipboard utility is available
type ClipboardError struct {
	OS      string
	Message string
}

func (e *ClipboardError) Error() string {
	return e.Message
}

// NewClipboardError creates a new ClipboardError with helpful installation instructions
func NewClipboardError() *ClipboardError {
	var msg string
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		msg = "no clipboard utility found. " + GetInstallInstructions()
	default:
		msg = fmt.Sprintf("clipboard not supported on %s", runtime.GOOS)
	}

	return &ClipboardError{
		OS:      runtime.GOOS,
		Message: msg,
	}
}

// Copy copies text to the system clipboard
func Copy(text string) error {
	if clipboard.Unsupported {
		return NewClipboardError()
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// GetInstallInstructions returns installation instructions for clipboard utilities
func GetInstallInstructions() string {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "Install a clipboard utility:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		return "pbcopy should be available by default on macOS"
	case "windows":
		return "clip should be available by default on Windows"
	default:
		return fmt.Sprintf("Clipboard not supported on %s", runtime.GOOS)
	}
}
