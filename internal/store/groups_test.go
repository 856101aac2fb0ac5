package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeMembers_AdminAlwaysIncluded(t *testing.T) {
	members := normalizeMembers("admin", []string{"u2", "u3"})
	require.ElementsMatch(t, []string{"admin", "u2", "u3"}, members)
}

func TestNormalizeMembers_AdminNotDuplicated(t *testing.T) {
	members := normalizeMembers("admin", []string{"admin", "u2"})
	require.ElementsMatch(t, []string{"admin", "u2"}, members)
}

func TestNormalizeMembers_DeduplicatesInput(t *testing.T) {
	members := normalizeMembers("admin", []string{"u2", "u2", "u3", "u3", "u3"})
	require.ElementsMatch(t, []string{"admin", "u2", "u3"}, members)
}

func TestNormalizeMembers_DropsEmptyIDs(t *testing.T) {
	members := normalizeMembers("admin", []string{"", "u2", ""})
	require.ElementsMatch(t, []string{"admin", "u2"}, members)
}
