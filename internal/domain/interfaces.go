package domain

import "time"

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// The engine depends on these; infrastructure implements them.

// Clock supplies the current instant. Satisfied by clockwork.Clock, so tests
// can drive day boundaries with a fake clock.
type Clock interface {
	Now() time.Time
}

// Random supplies uniform integers in [0, n). Satisfied by *math/rand.Rand.
type Random interface {
	Intn(n int) int
}

// SnapshotStore is the durable key-value boundary.
// Load returns (nil, nil) when nothing is stored under key.
type SnapshotStore interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}
