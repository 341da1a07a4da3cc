// Package words is the stateless word bank: category lists, random choice
// picks and the progressively revealed masked hint.
package words

import (
	"math/rand"
	"strings"
)

var categories = map[string][]string{
	"animals": {
		"owl", "elephant", "giraffe", "penguin", "dolphin", "kangaroo",
		"octopus", "hamster", "flamingo", "hedgehog", "walrus", "parrot",
		"raccoon", "squirrel", "jellyfish", "panther", "tortoise", "beaver",
	},
	"food": {
		"pizza", "pancake", "spaghetti", "croissant", "avocado", "pretzel",
		"burrito", "cupcake", "watermelon", "dumpling", "popcorn", "waffle",
		"ice cream", "hot dog", "sushi", "taco", "donut", "lasagna",
	},
	"objects": {
		"anchor", "umbrella", "telescope", "backpack", "lighthouse",
		"scissors", "keyboard", "compass", "ladder", "toaster", "hammock",
		"lantern", "wheelbarrow", "typewriter", "binoculars", "stapler",
	},
	"actions": {
		"juggling", "surfing", "yawning", "sneezing", "climbing", "fishing",
		"dancing", "whistling", "painting", "skydiving", "shivering",
		"applauding", "stretching", "tiptoeing", "daydreaming",
	},
}

// CategoryMixed draws from every category.
const CategoryMixed = "mixed"

// Categories lists the selectable category keys, mixed included.
func Categories() []string {
	keys := make([]string, 0, len(categories)+1)
	keys = append(keys, CategoryMixed)
	for k := range categories {
		keys = append(keys, k)
	}
	return keys
}

// IsCategory reports whether key names a known category.
func IsCategory(key string) bool {
	if key == CategoryMixed {
		return true
	}
	_, ok := categories[key]
	return ok
}

func pool(category string) []string {
	if list, ok := categories[category]; ok {
		return list
	}
	merged := make([]string, 0, 64)
	for _, list := range categories {
		merged = append(merged, list...)
	}
	return merged
}

// Choices returns n distinct random words from the category. Unknown
// categories fall back to the mixed pool.
func Choices(rng *rand.Rand, category string, n int) []string {
	src := pool(category)
	if n > len(src) {
		n = len(src)
	}
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		w := src[rng.Intn(len(src))]
		if seen[w] {
			continue
		}
		seen[w] = true
		picked = append(picked, w)
	}
	return picked
}

// =============================================================================
// MASKED HINT
// =============================================================================

// Hint tracks which letters of the secret word have been revealed. The
// masked rendering shows "_" per hidden letter, letters separated by single
// spaces and words separated by a double space.
type Hint struct {
	runes    []rune
	revealed []bool
}

func NewHint(word string) *Hint {
	runes := []rune(word)
	return &Hint{
		runes:    runes,
		revealed: make([]bool, len(runes)),
	}
}

// Masked renders the hint, e.g. "elephant" -> "_ _ _ _ _ _ _ _" and
// "ice cream" -> "_ _ _  _ _ _ _ _".
func (h *Hint) Masked() string {
	var b strings.Builder
	prevSpace := true
	for i, r := range h.runes {
		if r == ' ' {
			b.WriteString("  ")
			prevSpace = true
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
		}
		if h.revealed[i] {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		prevSpace = false
	}
	return b.String()
}

// HiddenCount reports how many letters are still masked.
func (h *Hint) HiddenCount() int {
	count := 0
	for i, r := range h.runes {
		if r != ' ' && !h.revealed[i] {
			count++
		}
	}
	return count
}

// RevealRandom uncovers one uniformly random still-masked letter. Returns
// false once every letter is visible.
func (h *Hint) RevealRandom(rng *rand.Rand) bool {
	hidden := make([]int, 0, len(h.runes))
	for i, r := range h.runes {
		if r != ' ' && !h.revealed[i] {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return false
	}
	h.revealed[hidden[rng.Intn(len(hidden))]] = true
	return true
}
