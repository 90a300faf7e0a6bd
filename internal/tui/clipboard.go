package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/jmylchreest/tracknote/internal/config"
)

// clipboardWriteAll is swapped in tests.
var clipboardWriteAll = clipboard.WriteAll

var errNoClipboard = errors.New("no clipboard command available")

// copyText copies text to the system clipboard. A configured command wins;
// otherwise the platform clipboard (wl-copy, xclip or xsel) is used.
func copyText(text string, cfg *config.Config) error {
	cmd := configuredClipboardCommand(cfg)
	if cmd == "" {
		if clipboard.Unsupported {
			return errNoClipboard
		}
		return clipboardWriteAll(text)
	}

	parts := strings.Fields(cmd)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := exec.CommandContext(ctx, parts[0], parts[1:]...)
	c.Stdin = strings.NewReader(text)
	if err := c.Run(); err != nil {
		return fmt.Errorf("clipboard command %q failed: %w", parts[0], err)
	}
	return nil
}

// configuredClipboardCommand returns the user's clipboard command, if set.
func configuredClipboardCommand(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return strings.TrimSpace(cfg.Clipboard.Command)
}
