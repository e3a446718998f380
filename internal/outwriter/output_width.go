package outwriter

import (
	"os"

	"github.com/huangsam/flowpulse/internal/contract"
	"golang.org/x/term"
)

// Column budget of the work item table excluding the name column.
const itemTableFixedWidth = 95

// GetMaxTableNameWidth calculates the maximum width of work item names in table output
// based on the terminal width.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // CI and pipes
		} else {
			termWidth = detected
		}
	}

	available := termWidth - itemTableFixedWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
