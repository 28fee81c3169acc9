package inventory

import (
    "math/rand/v2"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestGenerateNumbers_WidthTwoIsFullGrid(t *testing.T) {
    for _, count := range []int{0, 5, 100, 5000} {
        nums, err := GenerateNumbers(2, count, nil)
        require.NoError(t, err)
        require.Len(t, nums, 100)
        for i, n := range nums {
            assert.Equal(t, Format(i, 2), n)
        }
    }
}

func TestGenerateNumbers_SampleWithoutReplacement(t *testing.T) {
    rng := rand.New(rand.NewPCG(1, 2))
    for _, tc := range []struct{ width, count int }{
        {1, 10}, {3, 1}, {3, 250}, {3, 1000}, {4, 777}, {6, 2000},
    } {
        nums, err := GenerateNumbers(tc.width, tc.count, rng)
        require.NoError(t, err)
        require.Len(t, nums, tc.count)
        seen := make(map[string]bool, len(nums))
        for _, n := range nums {
            assert.True(t, ValidNumber(n, tc.width), "bad number %q for width %d", n, tc.width)
            assert.False(t, seen[n], "duplicate %q", n)
            seen[n] = true
        }
    }
}

func TestGenerateNumbers_Rejects(t *testing.T) {
    _, err := GenerateNumbers(3, 1001, nil)
    assert.Error(t, err)
    _, err = GenerateNumbers(3, 0, nil)
    assert.Error(t, err)
    _, err = GenerateNumbers(0, 10, nil)
    assert.Error(t, err)
    _, err = GenerateNumbers(7, 10, nil)
    assert.Error(t, err)
}

func TestParseNumbers(t *testing.T) {
    assert.Equal(t, []string{"05", "12"}, ParseNumbers(" 05, 12,05,, "))
    assert.Empty(t, ParseNumbers(" , ,"))
}

func TestValidNumber(t *testing.T) {
    assert.True(t, ValidNumber("007", 3))
    assert.False(t, ValidNumber("07", 3))
    assert.False(t, ValidNumber("0a7", 3))
}
