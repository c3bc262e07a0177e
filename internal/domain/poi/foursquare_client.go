package poi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// Field sets requested from the provider.
const (
	searchFields = "fsq_id,name,location,categories,stats,rating,price,tel,website,hours,photos,geocodes,features,distance"
	detailFields = "fsq_id,name,location,categories,stats,rating,price,tel,website,hours,photos,geocodes,features"
	nearbyFields = "fsq_id,name,location,categories,rating,photos"
)

// PlacesClient is the remote places provider.
type PlacesClient interface {
	Search(ctx context.Context, params SearchParams) ([]types.Place, error)
	Details(ctx context.Context, id string) (*types.Place, error)
}

// SearchParams is one provider search call.
type SearchParams struct {
	Query        string
	Center       types.Coordinates
	RadiusMeters int
	Limit        int
	Sort         types.SearchSort
	Fields       string
}

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("foursquare returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("foursquare returned status %d: %s", e.StatusCode, e.Message)
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Version string
}

var _ PlacesClient = (*FoursquareClient)(nil)

// FoursquareClient talks to the Foursquare Places API v3.
type FoursquareClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewFoursquareClient(cfg ClientConfig, httpClient *http.Client) *FoursquareClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &FoursquareClient{cfg: cfg, httpClient: httpClient}
}

func (c *FoursquareClient) Search(ctx context.Context, params SearchParams) ([]types.Place, error) {
	q := url.Values{}
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	q.Set("ll", params.Center.String())
	if params.RadiusMeters > 0 {
		q.Set("radius", strconv.Itoa(params.RadiusMeters))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Sort != "" {
		q.Set("sort", string(params.Sort))
	}
	fields := params.Fields
	if fields == "" {
		fields = searchFields
	}
	q.Set("fields", fields)

	var payload struct {
		Results []fsqPlace `json:"results"`
	}
	if err := c.get(ctx, "/places/search", q, &payload); err != nil {
		return nil, err
	}

	places := make([]types.Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		places = append(places, r.toPlace())
	}
	return places, nil
}

func (c *FoursquareClient) Details(ctx context.Context, id string) (*types.Place, error) {
	q := url.Values{}
	q.Set("fields", detailFields)

	var payload fsqPlace
	if err := c.get(ctx, "/places/"+url.PathEscape(id), q, &payload); err != nil {
		return nil, err
	}
	place := payload.toPlace()
	return &place, nil
}

func (c *FoursquareClient) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.cfg.Version != "" {
		req.Header.Set("X-API-Version", c.cfg.Version)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("foursquare request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read foursquare response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Message}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("malformed foursquare response: %w", err)
	}
	return nil
}

// flexID accepts a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	*f = flexID(data)
	return nil
}

type fsqPoint struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type fsqCategory struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
	Icon struct {
		Prefix string `json:"prefix"`
		Suffix string `json:"suffix"`
	} `json:"icon"`
}

type fsqHours struct {
	Display string `json:"display"`
	OpenNow *bool  `json:"open_now"`
	Regular []struct {
		Day   int    `json:"day"`
		Open  string `json:"open"`
		Close string `json:"close"`
	} `json:"regular"`
}

type fsqPlace struct {
	ID       string `json:"fsq_id"`
	Name     string `json:"name"`
	Location struct {
		FormattedAddress string   `json:"formatted_address"`
		Address          string   `json:"address"`
		Locality         string   `json:"locality"`
		Latitude         *float64 `json:"latitude"`
		Longitude        *float64 `json:"longitude"`
	} `json:"location"`
	Categories []fsqCategory `json:"categories"`
	Rating     float64       `json:"rating"`
	Price      int           `json:"price"`
	Stats      *struct {
		TotalRatings int `json:"total_ratings"`
		TotalTips    int `json:"total_tips"`
		TotalPhotos  int `json:"total_photos"`
	} `json:"stats"`
	Tel      string         `json:"tel"`
	Website  string         `json:"website"`
	Hours    *fsqHours      `json:"hours"`
	Photos   []types.Photo  `json:"photos"`
	Features types.Features `json:"features"`
	Geocodes struct {
		Main fsqPoint `json:"main"`
	} `json:"geocodes"`
	Distance int `json:"distance"`
}

func (p fsqPlace) coordinates() types.Coordinates {
	lat, lng := p.Geocodes.Main.Latitude, p.Geocodes.Main.Longitude
	if lat == nil || lng == nil {
		lat, lng = p.Location.Latitude, p.Location.Longitude
	}
	if lat == nil || lng == nil {
		return types.Coordinates{Latitude: invalidCoordinate, Longitude: invalidCoordinate}
	}
	return types.Coordinates{Latitude: *lat, Longitude: *lng}
}

// invalidCoordinate marks a missing position so Valid() rejects it.
const invalidCoordinate = 1000

func (p fsqPlace) toPlace() types.Place {
	address := p.Location.FormattedAddress
	if address == "" {
		address = strings.TrimSpace(strings.Join(nonEmpty(p.Location.Address, p.Location.Locality), ", "))
	}

	place := types.Place{
		ID:          p.ID,
		Name:        p.Name,
		Address:     address,
		Categories:  make([]types.Category, 0, len(p.Categories)),
		Rating:      p.Rating,
		Price:       p.Price,
		Phone:       p.Tel,
		Website:     p.Website,
		Coordinates: p.coordinates(),
		Photos:      p.Photos,
		Features:    p.Features,
		Distance:    p.Distance,
	}

	for _, c := range p.Categories {
		cat := types.Category{ID: string(c.ID), Name: c.Name}
		if c.Icon.Prefix != "" {
			cat.IconURL = c.Icon.Prefix + "64" + c.Icon.Suffix
		}
		place.Categories = append(place.Categories, cat)
	}

	if p.Stats != nil {
		place.Stats = &types.PlaceStats{
			TotalRatings: p.Stats.TotalRatings,
			TotalTips:    p.Stats.TotalTips,
			TotalPhotos:  p.Stats.TotalPhotos,
		}
	}

	if p.Hours != nil {
		hours := &types.Hours{Display: p.Hours.Display, OpenNow: p.Hours.OpenNow}
		for _, r := range p.Hours.Regular {
			hours.Regular = append(hours.Regular, types.HoursPeriod{
				// Provider days run 1 (Monday) to 7 (Sunday).
				Day:   r.Day % 7,
				Open:  types.FormatClock(r.Open),
				Close: types.FormatClock(r.Close),
			})
		}
		place.Hours = hours
	}

	return place
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
