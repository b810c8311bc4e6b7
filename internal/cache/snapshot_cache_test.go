package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/replenish-engine/internal/domain"
)

func TestBuildSummaryKeyScopesByClient(t *testing.T) {
	key := buildSummaryKey(domain.SnapshotFilter{ClientID: 42, LocationID: "wh-1"})

	// the client id sits before the filter hash so per-client prefix
	// invalidation can match it
	assert.True(t, strings.HasPrefix(key, "snapshots:summary:42:"), key)
}

func TestSnapshotFilterHashStable(t *testing.T) {
	a := domain.SnapshotFilter{ClientID: 1, LocationID: "wh-1", ItemIDs: []int64{3, 7}}
	b := domain.SnapshotFilter{ClientID: 1, LocationID: "wh-1", ItemIDs: []int64{3, 7}}

	assert.Equal(t, snapshotFilterHash(a), snapshotFilterHash(b))
}

func TestSnapshotFilterHashDistinguishesFilters(t *testing.T) {
	base := domain.SnapshotFilter{ClientID: 1, LocationID: "wh-1"}
	other := base
	other.Conditions = []string{domain.StockDead}

	assert.NotEqual(t, snapshotFilterHash(base), snapshotFilterHash(other))

	// pagination never changes the aggregate, so it stays out of the hash
	paged := base
	paged.Page = 2
	assert.Equal(t, snapshotFilterHash(base), snapshotFilterHash(paged))
}
