package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "ap-calculus-bc", NormalizeName("  AP-Calculus-BC "))
	require.Equal(t, "whatis2+2?", NormalizeName("What is\n2+2?"))
	require.Equal(t, "", NormalizeName("  \n\t "))
}

func TestContainsAny(t *testing.T) {
	keywords := []string{"success", "thank you", "submitted"}
	require.True(t, ContainsAny("Thank You!", keywords))
	require.True(t, ContainsAny("quiz SUBMITTED at noon", keywords))
	require.False(t, ContainsAny("failure", keywords))
	// no whitespace normalization: "thank  you" does not match
	require.False(t, ContainsAny("thank  you", keywords))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "hello", Truncate("hello", 10))
	require.Equal(t, "hello", Truncate("hello", 5))
	require.Equal(t, "hel", Truncate("hello", 3))
	// multibyte runes are never split
	require.Equal(t, "héll", Truncate("héllo", 5))
	require.Equal(t, "h", Truncate("héllo", 1))
	require.Equal(t, "h", Truncate("héllo", 2))
}
