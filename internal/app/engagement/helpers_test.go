package engagement_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/domain"
	"github.com/exhale-app/exhale/internal/infra/memstore"
)

// seqRandom replays vals in order, each reduced modulo n.
type seqRandom struct {
	vals []int
	i    int
}

func (r *seqRandom) Intn(n int) int {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

var start = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func profile(quitAt time.Time) domain.UserProfile {
	return domain.UserProfile{
		QuitAt:            quitAt,
		CigarettesPerDay:  20,
		PricePerPack:      50,
		CigarettesPerPack: 20,
	}
}

type harness struct {
	store *engagement.Store
	clock *clockwork.FakeClock
	kv    *memstore.Store
	rng   *seqRandom
	loc   *time.Location
}

// newHarness builds a Store at start whose user quit daysSmokeFree days ago.
func newHarness(t *testing.T, daysSmokeFree int) *harness {
	t.Helper()
	h := &harness{
		clock: clockwork.NewFakeClockAt(start),
		kv:    memstore.New(),
		rng:   &seqRandom{},
		loc:   time.UTC,
	}
	h.store = h.reopen(daysSmokeFree)
	return h
}

// newHarnessAt builds a Store whose clock starts at now and whose calendar
// days are observed in loc.
func newHarnessAt(t *testing.T, now time.Time, loc *time.Location) *harness {
	t.Helper()
	h := &harness{
		clock: clockwork.NewFakeClockAt(now),
		kv:    memstore.New(),
		rng:   &seqRandom{},
		loc:   loc,
	}
	h.store = h.reopen(0)
	return h
}

// reopen builds a new Store over the same snapshot store and clock.
func (h *harness) reopen(daysSmokeFree int) *engagement.Store {
	return engagement.NewStore(engagement.Options{
		Store:          h.kv,
		Clock:          h.clock,
		Random:         h.rng,
		Location:       h.loc,
		DefaultProfile: profile(start.Add(-time.Duration(daysSmokeFree) * 24 * time.Hour)),
	})
}
