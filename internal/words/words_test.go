package words

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskedSingleWord(t *testing.T) {
	h := NewHint("elephant")
	assert.Equal(t, "_ _ _ _ _ _ _ _", h.Masked())
	assert.Equal(t, 8, h.HiddenCount())
}

func TestMaskedMultiWordUsesDoubleSpace(t *testing.T) {
	h := NewHint("ice cream")
	assert.Equal(t, "_ _ _  _ _ _ _ _", h.Masked())
	assert.Equal(t, 8, h.HiddenCount())
}

func TestRevealRandomProgression(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := NewHint("owl")

	for i := 1; i <= 3; i++ {
		require.True(t, h.RevealRandom(rng))
		assert.Equal(t, 3-i, h.HiddenCount())
	}
	assert.False(t, h.RevealRandom(rng), "fully revealed hint must refuse")
	assert.Equal(t, "o w l", h.Masked())
}

func TestRevealRandomSkipsSpaces(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := NewHint("hot dog")

	for h.RevealRandom(rng) {
	}
	assert.Equal(t, "h o t  d o g", h.Masked())
}

func TestChoicesDistinctAndFromCategory(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	picked := Choices(rng, "animals", 3)
	require.Len(t, picked, 3)

	seen := make(map[string]bool)
	pool := categories["animals"]
	for _, w := range picked {
		assert.False(t, seen[w], "duplicate choice %q", w)
		seen[w] = true
		assert.Contains(t, pool, w)
	}
}

func TestChoicesUnknownCategoryFallsBackToMixed(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	picked := Choices(rng, "nonsense", 3)
	assert.Len(t, picked, 3)
}

func TestIsCategory(t *testing.T) {
	assert.True(t, IsCategory(CategoryMixed))
	assert.True(t, IsCategory("food"))
	assert.False(t, IsCategory("nonsense"))
}

func TestCategoriesIncludesMixed(t *testing.T) {
	keys := Categories()
	assert.Contains(t, keys, CategoryMixed)
	assert.Len(t, keys, len(categories)+1)
}

func TestMaskedNeverLeaksUnrevealedLetters(t *testing.T) {
	h := NewHint("giraffe")
	masked := strings.ReplaceAll(h.Masked(), " ", "")
	assert.Equal(t, strings.Repeat("_", 7), masked)
}
