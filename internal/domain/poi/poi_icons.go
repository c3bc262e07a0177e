package poi

import (
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// Aho-Corasick matcher over category names. Substring matches, so "Coffee
// Shop" hits both "coffee" and "shop".
var (
	iconMatcherBuilder = a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
	})

	iconMatcher = iconMatcherBuilder.Build([]string{
		"restaurant", "food",
		"cafe", "coffee",
		"hotel", "lodging",
		"shop", "store",
		"park", "garden",
		"museum", "gallery",
		"bar", "pub",
	})

	keywordToIcon = map[string]string{
		"restaurant": "restaurant", "food": "restaurant",
		"cafe": "cafe", "coffee": "cafe",
		"hotel": "bed", "lodging": "bed",
		"shop": "cart", "store": "cart",
		"park": "leaf", "garden": "leaf",
		"museum": "images", "gallery": "images",
		"bar": "wine", "pub": "wine",
	}

	// Lower wins when a name matches several icons.
	iconPriority = map[string]int{
		"restaurant": 1,
		"cafe":       2,
		"bed":        3,
		"cart":       4,
		"leaf":       5,
		"images":     6,
		"wine":       7,
	}
)

// CategoryIcon returns the icon hint for a category name.
func CategoryIcon(name string) string {
	name = strings.ToLower(name)

	matches := iconMatcher.FindAll(name)
	if len(matches) == 0 {
		return types.DefaultIcon
	}

	best := types.DefaultIcon
	bestPriority := 999
	for _, match := range matches {
		icon := keywordToIcon[name[match.Start():match.End()]]
		if p, ok := iconPriority[icon]; ok && p < bestPriority {
			best, bestPriority = icon, p
		}
	}
	return best
}
