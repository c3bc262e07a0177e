package poi

import (
	"fmt"
	"math"
	"time"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// Best-time recommendations by length of today's opening hours.
var (
	defaultBestTime = types.BestTimeToVisit{
		Recommended: "Morning (9 AM–11 AM)",
		Reason:      "Based on typical tourist patterns",
	}
	shortHoursBestTime = types.BestTimeToVisit{
		Recommended: "Early morning",
		Reason:      "Short operating hours",
	}
	moderateHoursBestTime = types.BestTimeToVisit{
		Recommended: "Mid-morning to early afternoon",
		Reason:      "Moderate operating hours",
	}
	extendedHoursBestTime = types.BestTimeToVisit{
		Recommended: "Late morning to early evening",
		Reason:      "Extended operating hours",
	}
)

func bestTimeToVisit(hours *types.Hours, today time.Weekday) types.BestTimeToVisit {
	period, ok := hours.Today(today)
	if !ok {
		return defaultBestTime
	}
	d, ok := period.Duration()
	if !ok {
		return defaultBestTime
	}
	switch {
	case d <= 4*time.Hour:
		return shortHoursBestTime
	case d <= 8*time.Hour:
		return moderateHoursBestTime
	default:
		return extendedHoursBestTime
	}
}

func touristTips(p types.Place, today time.Weekday) []string {
	tips := make([]string, 0, 5)
	if p.Features.Has(types.FeatureWheelchairAccessible) {
		tips = append(tips, "Wheelchair accessible")
	}
	if p.Features.Has(types.FeatureParking) {
		tips = append(tips, "Parking available")
	}
	if p.Features.Has(types.FeaturePublicTransport) {
		tips = append(tips, "Near public transport")
	}
	if period, ok := p.Hours.Today(today); ok {
		tips = append(tips, fmt.Sprintf("Open today from %s to %s", period.Open, period.Close))
	}
	if p.Price > 0 {
		tips = append(tips, "Price level: "+types.PriceGlyphs(p.Price))
	}
	return tips
}

func accessibility(f types.Features) types.Accessibility {
	return types.Accessibility{
		WheelchairAccessible: f.Has(types.FeatureWheelchairAccessible),
		Parking:              f.Has(types.FeatureParking),
		PublicTransport:      f.Has(types.FeaturePublicTransport),
	}
}

// enrich fills every derived field of p.
func enrich(p *types.Place, center *types.Coordinates, now time.Time) {
	for i := range p.Categories {
		p.Categories[i].Icon = CategoryIcon(p.Categories[i].Name)
	}
	if p.Distance == 0 && center != nil && center.Valid() {
		p.Distance = int(math.Round(calculateDistance(center.Latitude, center.Longitude, p.Coordinates.Latitude, p.Coordinates.Longitude) * 1000))
	}
	today := now.Weekday()
	p.BestTimeToVisit = bestTimeToVisit(p.Hours, today)
	p.TouristTips = touristTips(*p, today)
	p.Accessibility = accessibility(p.Features)
}

func toAttraction(p types.Place) types.NearbyAttraction {
	for i := range p.Categories {
		p.Categories[i].Icon = CategoryIcon(p.Categories[i].Name)
	}
	return types.NearbyAttraction{
		ID:         p.ID,
		Name:       p.Name,
		Address:    p.Address,
		Categories: p.Categories,
		Rating:     p.Rating,
		Photos:     p.Photos,
	}
}

// calculateDistance calculates the distance between two coordinates using the Haversine formula
// Returns distance in kilometers
func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371 // Earth's radius in kilometers

	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}
