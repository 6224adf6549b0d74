package lookup

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Airport is one row of the worldwide airport dataset.
type Airport struct {
	Name    string `json:"nombre"`
	City    string `json:"ciudad"`
	Country string `json:"pais"`
	IATA    string `json:"iata"`
	ICAO    string `json:"icao"`
}

// AirportsClient downloads the OurAirports CSV dump once a day and answers
// substring searches against it in memory.
type AirportsClient struct {
	url   string
	http  *http.Client
	cache *Cache[[]Airport]
}

// NewAirportsClient builds a client for the given dataset URL (CSV in
// OurAirports column order, header row included).
func NewAirportsClient(url string) *AirportsClient {
	return &AirportsClient{
		url:   url,
		http:  &http.Client{Timeout: 30 * time.Second},
		cache: NewCache[[]Airport](DefaultTTL),
	}
}

// load returns the full dataset, downloading it when the cache is cold.
func (c *AirportsClient) load(ctx context.Context) ([]Airport, error) {
	if v, ok := c.cache.Get("all"); ok {
		return v, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("airports: dataset responded %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1 // the dataset has a few short rows
	// OurAirports columns: id, ident, type, name, lat, lon, elevation,
	// continent, iso_country, iso_region, municipality, scheduled_service,
	// gps_code, iata_code, ...
	const (
		colType    = 2
		colName    = 3
		colCountry = 8
		colCity    = 10
		colGPS     = 12
		colIATA    = 13
	)
	var airports []Airport
	first := true
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		if first {
			first = false
			continue // header row
		}
		if len(rec) <= colIATA {
			continue
		}
		iata := strings.TrimSpace(rec[colIATA])
		if iata == "" {
			continue
		}
		if t := rec[colType]; t != "large_airport" && t != "medium_airport" && t != "small_airport" {
			continue // drops heliports, seaplane bases and closed strips
		}
		airports = append(airports, Airport{
			Name:    rec[colName],
			City:    rec[colCity],
			Country: rec[colCountry],
			IATA:    iata,
			ICAO:    strings.TrimSpace(rec[colGPS]),
		})
	}
	if len(airports) == 0 {
		return nil, fmt.Errorf("airports: dataset at %s parsed to zero rows", c.url)
	}
	c.cache.Set("all", airports)
	return airports, nil
}

// Search finds airports whose IATA code, city, name or country contains the
// query, case-insensitively. Exact IATA matches rank first, then city
// prefixes, then everything else; at most limit results are returned.
func (c *AirportsClient) Search(ctx context.Context, query string, limit int) ([]Airport, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	all, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		a     Airport
		score int
	}
	var matches []scored
	for _, a := range all {
		iata := strings.ToLower(a.IATA)
		city := strings.ToLower(a.City)
		name := strings.ToLower(a.Name)
		country := strings.ToLower(a.Country)
		switch {
		case iata == q:
			matches = append(matches, scored{a, 0})
		case strings.HasPrefix(city, q):
			matches = append(matches, scored{a, 1})
		case strings.Contains(city, q) || strings.Contains(name, q) || strings.Contains(iata, q) || strings.Contains(country, q):
			matches = append(matches, scored{a, 2})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score < matches[j].score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Airport, len(matches))
	for i, m := range matches {
		out[i] = m.a
	}
	return out, nil
}
