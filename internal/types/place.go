package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair can be placed on a map.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}

// Category is a provider category label with a display icon hint.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	IconURL string `json:"icon_url,omitempty"`
}

// HoursPeriod is one open/close pair. Day follows time.Weekday (0 = Sunday).
type HoursPeriod struct {
	Day   int    `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Duration returns the open-to-close span. A close time at or before the
// open time is treated as closing on the following day.
func (p HoursPeriod) Duration() (time.Duration, bool) {
	open, ok := ParseClock(p.Open)
	if !ok {
		return 0, false
	}
	closing, ok := ParseClock(p.Close)
	if !ok {
		return 0, false
	}
	if closing <= open {
		closing += 24 * time.Hour
	}
	return closing - open, true
}

// Hours holds structured opening hours plus the provider's open-now flag.
// OpenNow is nil when the provider did not say.
type Hours struct {
	Display string        `json:"display,omitempty"`
	Regular []HoursPeriod `json:"regular,omitempty"`
	OpenNow *bool         `json:"open_now,omitempty"`
}

// Today returns the first period registered for the given weekday.
func (h *Hours) Today(day time.Weekday) (HoursPeriod, bool) {
	if h == nil {
		return HoursPeriod{}, false
	}
	for _, p := range h.Regular {
		if p.Day == int(day) {
			return p, true
		}
	}
	return HoursPeriod{}, false
}

// ParseClock parses "HHMM", "HH:MM" or "HH:MM:SS" into an offset from midnight.
// A leading "+" (next day marker used by some providers) adds 24 hours.
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	var extra time.Duration
	if strings.HasPrefix(s, "+") {
		extra = 24 * time.Hour
		s = s[1:]
	}
	s = strings.ReplaceAll(s, ":", "")
	if len(s) == 6 {
		s = s[:4]
	}
	if len(s) != 4 {
		return 0, false
	}
	hh, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(s[2:])
	if err != nil {
		return 0, false
	}
	if hh < 0 || hh > 24 || mm < 0 || mm > 59 {
		return 0, false
	}
	return extra + time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, true
}

// FormatClock renders a provider time string as HH:MM, leaving unparseable
// values untouched.
func FormatClock(s string) string {
	d, ok := ParseClock(s)
	if !ok {
		return s
	}
	d %= 24 * time.Hour
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Photo is either a bare URI or a provider photo object.
type Photo struct {
	ID     string `json:"id,omitempty"`
	URI    string `json:"uri,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// UnmarshalJSON accepts a JSON string or an object.
func (p *Photo) UnmarshalJSON(data []byte) error {
	var uri string
	if err := json.Unmarshal(data, &uri); err == nil {
		*p = Photo{URI: uri}
		return nil
	}
	type alias Photo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Photo(a)
	return nil
}

// URL returns a displayable address for the photo.
func (p Photo) URL() string {
	if p.URI != "" {
		return p.URI
	}
	if p.Prefix == "" {
		return ""
	}
	return p.Prefix + "original" + p.Suffix
}

// Features is the set of provider feature tags attached to a place.
type Features []string

// UnmarshalJSON accepts a list of tags or a nested object whose true leaves
// are treated as tags.
func (f *Features) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		// Unknown shapes carry no usable tags.
		*f = nil
		return nil
	}
	var tags []string
	collectFeatureTags(nested, &tags)
	sort.Strings(tags)
	*f = tags
	return nil
}

func collectFeatureTags(node map[string]any, tags *[]string) {
	for k, v := range node {
		switch val := v.(type) {
		case bool:
			if val {
				*tags = append(*tags, k)
			}
		case map[string]any:
			collectFeatureTags(val, tags)
		}
	}
}

// Has reports whether the tag is present.
func (f Features) Has(tag string) bool {
	for _, t := range f {
		if t == tag {
			return true
		}
	}
	return false
}

// Feature tags the assistant understands.
const (
	FeatureWheelchairAccessible = "wheelchair_accessible"
	FeatureParking              = "parking"
	FeaturePublicTransport      = "public_transport"
)

// PlaceStats are provider popularity counters.
type PlaceStats struct {
	TotalRatings int `json:"total_ratings,omitempty"`
	TotalTips    int `json:"total_tips,omitempty"`
	TotalPhotos  int `json:"total_photos,omitempty"`
}

// BestTimeToVisit is a derived recommendation.
type BestTimeToVisit struct {
	Recommended string `json:"recommended"`
	Reason      string `json:"reason"`
}

// Accessibility is derived from feature tags.
type Accessibility struct {
	WheelchairAccessible bool `json:"wheelchair_accessible"`
	Parking              bool `json:"parking"`
	PublicTransport      bool `json:"public_transport"`
}

// NearbyAttraction is the summary shown on a place detail view.
type NearbyAttraction struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Categories []Category `json:"categories"`
	Rating     float64    `json:"rating"`
	Photos     []Photo    `json:"photos,omitempty"`
}

// Place is the normalized place record used by every component.
type Place struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Address           string             `json:"address"`
	Categories        []Category         `json:"categories"`
	Rating            float64            `json:"rating"` // provider scale 0-10
	Price             int                `json:"price"`  // 0 unknown, 1-4
	Phone             string             `json:"phone,omitempty"`
	Website           string             `json:"website,omitempty"`
	Hours             *Hours             `json:"hours,omitempty"`
	Coordinates       Coordinates        `json:"coordinates"`
	Photos            []Photo            `json:"photos,omitempty"`
	Features          Features           `json:"features,omitempty"`
	Distance          int                `json:"distance,omitempty"` // metres from the search centre
	Stats             *PlaceStats        `json:"stats,omitempty"`
	BestTimeToVisit   BestTimeToVisit    `json:"best_time_to_visit"`
	TouristTips       []string           `json:"tourist_tips"`
	Accessibility     Accessibility      `json:"accessibility"`
	NearbyAttractions []NearbyAttraction `json:"nearby_attractions,omitempty"`
}

// DisplayRating converts the provider 0-10 rating to a 0-5 scale.
func (p Place) DisplayRating() float64 {
	return p.Rating / 2
}

// DefaultIcon is the icon hint for places without a recognised category.
const DefaultIcon = "location"

// Icon returns the icon hint of the main category.
func (p Place) Icon() string {
	if len(p.Categories) == 0 || p.Categories[0].Icon == "" {
		return DefaultIcon
	}
	return p.Categories[0].Icon
}

// PriceGlyphs renders the price tier as repeated currency glyphs.
func (p Place) PriceGlyphs() string {
	return PriceGlyphs(p.Price)
}

// PriceGlyphs renders a price tier, empty for unknown.
func PriceGlyphs(tier int) string {
	if tier <= 0 {
		return ""
	}
	return strings.Repeat("$", tier)
}

// IsOpenNow reports the provider open-now flag and whether it is known.
func (p Place) IsOpenNow() (open, known bool) {
	if p.Hours == nil || p.Hours.OpenNow == nil {
		return false, false
	}
	return *p.Hours.OpenNow, true
}

// SearchSort is the provider-side ordering requested for a search.
type SearchSort string

const (
	SearchSortRelevance  SearchSort = "RELEVANCE"
	SearchSortRating     SearchSort = "RATING"
	SearchSortDistance   SearchSort = "DISTANCE"
	SearchSortPopularity SearchSort = "POPULARITY"
)

// Search defaults.
const (
	DefaultSearchRadiusMeters = 5000
	DefaultSearchLimit        = 50
	MaxSearchLimit            = 50
)

// SearchRequest describes one place search.
type SearchRequest struct {
	Center       Coordinates `json:"center"`
	Query        string      `json:"query"`
	RadiusMeters int         `json:"radius_meters"`
	Limit        int         `json:"limit"`
	Sort         SearchSort  `json:"sort,omitempty"`
}
