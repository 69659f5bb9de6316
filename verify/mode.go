package verify

import (
	"fmt"
	"strings"
)

// Mode selects which checks run after the multiply.
type Mode int

const (
	// ModeNone skips verification. It is the benchmark default.
	ModeNone Mode = iota
	// ModeSum compares the reduced sum of C with its closed form.
	ModeSum
	// ModeFull gathers A, B and C on rank 0 and recomputes the product.
	ModeFull
	// ModeBoth runs ModeFull, then ModeSum.
	ModeBoth
)

// String returns the flag spelling of m.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSum:
		return "sum"
	case ModeFull:
		return "full"
	case ModeBoth:
		return "both"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of String, case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ModeNone, nil
	case "sum":
		return ModeSum, nil
	case "full":
		return ModeFull, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeNone, fmt.Errorf("ParseMode(%q): %w", s, ErrUnknownMode)
	}
}

// Full reports whether m includes the gathered product check.
func (m Mode) Full() bool { return m == ModeFull || m == ModeBoth }

// Sum reports whether m includes the sum check.
func (m Mode) Sum() bool { return m == ModeSum || m == ModeBoth }
