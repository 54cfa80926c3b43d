package game

import (
	"sort"

	"github.com/valyala/fastrand"
)

// wordBank holds the category word lists. Content selection is deliberately
// dumb: pick a random enabled category, pick a random word from it.
type wordBank struct {
	byCategory map[string][]string
}

func NewWordBank() *wordBank {
	return &wordBank{byCategory: map[string][]string{
		"animals": {
			"elephant", "penguin", "octopus", "giraffe", "hedgehog",
			"dolphin", "kangaroo", "flamingo", "chameleon", "walrus",
		},
		"food": {
			"pancake", "avocado", "lasagna", "croissant", "dumpling",
			"pretzel", "burrito", "meatball", "popcorn", "waffle",
		},
		"places": {
			"library", "airport", "lighthouse", "stadium", "aquarium",
			"bakery", "castle", "volcano", "subway", "harbor",
		},
		"objects": {
			"umbrella", "telescope", "typewriter", "compass", "hammock",
			"lantern", "anchor", "accordion", "scissors", "microscope",
		},
		"sports": {
			"volleyball", "archery", "snowboarding", "fencing", "rowing",
			"badminton", "curling", "surfing", "wrestling", "bowling",
		},
	}}
}

func (b *wordBank) Categories() []string {
	categories := make([]string, 0, len(b.byCategory))
	for name := range b.byCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	return categories
}

// Pick chooses a word from one of the requested categories. Unknown
// categories are skipped; if none of them exist the whole bank is fair game.
func (b *wordBank) Pick(categories []string) (string, string) {
	candidates := make([]string, 0, len(categories))
	for _, name := range categories {
		if len(b.byCategory[name]) > 0 {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		candidates = b.Categories()
	}

	category := candidates[fastrand.Uint32n(uint32(len(candidates)))]
	words := b.byCategory[category]
	return category, words[fastrand.Uint32n(uint32(len(words)))]
}
