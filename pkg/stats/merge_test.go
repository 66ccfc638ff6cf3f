package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeSumsNestedLeaves(t *testing.T) {
	a := Branch{"skills": Branch{"Attack": Branch{"xp": Leaf(1000000), "lvl": Leaf(70)}}}
	b := Branch{"skills": Branch{"Attack": Branch{"xp": Leaf(3000000), "lvl": Leaf(75)}}}

	got, err := Merge(a, b, Add)
	require.NoError(t, err)

	attack := got["skills"].(Branch)["Attack"].(Branch)
	require.Equal(t, Leaf(4000000), attack["xp"])
	require.Equal(t, Leaf(145), attack["lvl"])
}

func TestMergeNilOpDefaultsToAdd(t *testing.T) {
	got, err := Merge(Branch{"xp": Leaf(1)}, Branch{"xp": Leaf(2)}, nil)
	require.NoError(t, err)
	require.Equal(t, Leaf(3), got["xp"])
}

func TestMergeLeftOperandDefinesShape(t *testing.T) {
	a := Branch{"xp": Leaf(1)}
	b := Branch{"xp": Leaf(2), "lvl": Leaf(50)}

	got, err := Merge(a, b, Add)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, Leaf(3), got["xp"])
}

func TestMergeMissingKey(t *testing.T) {
	a := Branch{"skills": Branch{"Attack": Branch{"xp": Leaf(1)}}}
	b := Branch{"skills": Branch{"Attack": Branch{}}}

	_, err := Merge(a, b, Add)
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "skills.Attack.xp", mismatch.Path)
}

func TestMergeKindMismatch(t *testing.T) {
	a := Branch{"skills": Branch{"Attack": Leaf(1)}}
	b := Branch{"skills": Branch{"Attack": Branch{"xp": Leaf(1)}}}

	_, err := Merge(a, b, Add)
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "skills.Attack", mismatch.Path)
}

func TestMergeDoesNotMutateOperands(t *testing.T) {
	a := Branch{"xp": Leaf(1)}
	b := Branch{"xp": Leaf(2)}

	_, err := Merge(a, b, Add)
	require.NoError(t, err)
	require.Equal(t, Leaf(1), a["xp"])
	require.Equal(t, Leaf(2), b["xp"])
}
