package discover

import (
	"fmt"
	"slices"
	"strings"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// SortBy selects the client-side ordering of a result list.
type SortBy string

const (
	SortDistance SortBy = "distance"
	SortRating   SortBy = "rating"
	SortPrice    SortBy = "price"
)

// ParseSortBy accepts "distance", "rating" or "price". Empty means distance.
func ParseSortBy(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDistance:
		return SortDistance, nil
	case SortRating:
		return SortRating, nil
	case SortPrice:
		return SortPrice, nil
	}
	return "", fmt.Errorf("%w: unknown sort %q", types.ErrBadRequest, s)
}

// Price tier bounds.
const (
	MinPriceTier = 1
	MaxPriceTier = 4
)

// PriceRange is an inclusive price tier interval.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FullPriceRange covers every known tier.
func FullPriceRange() PriceRange {
	return PriceRange{Min: MinPriceTier, Max: MaxPriceTier}
}

// ParsePriceRange reads "2", "1-3" or "" (full range).
func ParsePriceRange(s string) (PriceRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FullPriceRange(), nil
	}
	var r PriceRange
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		if _, err := fmt.Sscanf(lo+" "+hi, "%d %d", &r.Min, &r.Max); err != nil {
			return PriceRange{}, fmt.Errorf("%w: price range %q", types.ErrBadRequest, s)
		}
	} else {
		if _, err := fmt.Sscanf(s, "%d", &r.Min); err != nil {
			return PriceRange{}, fmt.Errorf("%w: price range %q", types.ErrBadRequest, s)
		}
		r.Max = r.Min
	}
	if r.Min < MinPriceTier || r.Max > MaxPriceTier || r.Min > r.Max {
		return PriceRange{}, fmt.Errorf("%w: price range %q outside %d-%d", types.ErrBadRequest, s, MinPriceTier, MaxPriceTier)
	}
	return r, nil
}

// Contains reports whether tier lies in the range. Unknown price (0) never does.
func (r PriceRange) Contains(tier int) bool {
	return tier >= r.Min && tier <= r.Max
}

// Tap applies a tap on a price tier control. Tapping the lower bound raises
// it, tapping the upper bound lowers it, and any other tier collapses the
// range to that tier. Tapping a collapsed range resets it to the full range.
func (r PriceRange) Tap(tier int) PriceRange {
	switch {
	case r.Min == r.Max && tier == r.Min:
		return FullPriceRange()
	case tier == r.Min:
		return PriceRange{Min: r.Min + 1, Max: r.Max}
	case tier == r.Max:
		return PriceRange{Min: r.Min, Max: r.Max - 1}
	default:
		return PriceRange{Min: tier, Max: tier}
	}
}

func (r PriceRange) String() string {
	if r.Min == r.Max {
		return types.PriceGlyphs(r.Min)
	}
	return types.PriceGlyphs(r.Min) + "-" + types.PriceGlyphs(r.Max)
}

// FilterSpec is the client-side refinement applied to a result list.
type FilterSpec struct {
	PriceRange PriceRange `json:"price_range"`
	OpenNow    bool       `json:"open_now"`
	Category   string     `json:"category,omitempty"`
	SortBy     SortBy     `json:"sort_by"`
}

// DefaultFilterSpec keeps every priced place in provider order.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{PriceRange: FullPriceRange(), SortBy: SortDistance}
}

// ApplyFilters returns the places matching spec, sorted by spec.SortBy.
// Filters run in order: price range, open now, category. Places without an
// open-now signal are dropped when OpenNow is set. The input is not modified.
func ApplyFilters(places []types.Place, spec FilterSpec) []types.Place {
	category := strings.ToLower(strings.TrimSpace(spec.Category))

	out := make([]types.Place, 0, len(places))
	for _, p := range places {
		if !spec.PriceRange.Contains(p.Price) {
			continue
		}
		if spec.OpenNow {
			if open, known := p.IsOpenNow(); !known || !open {
				continue
			}
		}
		if category != "" && !matchesCategory(p, category) {
			continue
		}
		out = append(out, p)
	}

	switch spec.SortBy {
	case SortRating:
		slices.SortStableFunc(out, func(a, b types.Place) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			}
			return 0
		})
	case SortPrice:
		slices.SortStableFunc(out, func(a, b types.Place) int {
			return a.Price - b.Price
		})
	}
	return out
}

func matchesCategory(p types.Place, needle string) bool {
	for _, c := range p.Categories {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			return true
		}
	}
	return false
}
