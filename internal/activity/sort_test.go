package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

func TestSortByTimeDesc(t *testing.T) {
	now := fixedNow()
	entries := []*domain.LedgerEntry{
		entry("old", now.AddDate(0, 0, -10), 1, ""),
		entry("invalid-1", time.Time{}, 1, ""),
		entry("new", now, 1, ""),
		entry("mid", now.AddDate(0, 0, -3), 1, ""),
		entry("invalid-2", time.Time{}, 1, ""),
	}

	got := SortByTimeDesc(entries)

	assert.Equal(t, []string{"new", "mid", "old", "invalid-1", "invalid-2"}, ids(got))
	assert.Equal(t, []string{"old", "invalid-1", "new", "mid", "invalid-2"}, ids(entries), "input must not be reordered")
}

func TestSortByTimeDesc_StableOnTies(t *testing.T) {
	at := fixedNow().Add(-time.Minute)
	entries := []*domain.LedgerEntry{
		entry("a", at, 1, ""),
		entry("b", at, 2, ""),
		entry("newest", fixedNow(), 3, ""),
		entry("c", at, 4, ""),
	}

	got := SortByTimeDesc(entries)
	assert.Equal(t, []string{"newest", "a", "b", "c"}, ids(got))
}

func TestSortByTimeDesc_Idempotent(t *testing.T) {
	once := SortByTimeDesc(fixtureEntries())
	twice := SortByTimeDesc(once)
	assert.Equal(t, ids(once), ids(twice))
}

func TestSortByTimeDesc_Empty(t *testing.T) {
	assert.Empty(t, SortByTimeDesc(nil))
}
