package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency. The progression
// store absorbs all of them at its boundary; they surface only from the
// infrastructure and config layers.

var (
	// Snapshot errors
	ErrCorruptSnapshot = errors.New("snapshot is corrupt")

	// Profile errors
	ErrInvalidProfile = errors.New("invalid smoking profile")

	// Config errors
	ErrInvalidTimezone = errors.New("unknown timezone")
)
