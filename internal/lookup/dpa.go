package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Region is one región of the Chilean DPA.
type Region struct {
	Code string `json:"codigo"`
	Name string `json:"nombre"`
}

// Provincia is one provincia within a región.
type Provincia struct {
	Code string `json:"codigo"`
	Name string `json:"nombre"`
}

// Comuna is one comuna within a región or provincia.
type Comuna struct {
	Code string `json:"codigo"`
	Name string `json:"nombre"`
}

// DPAClient fetches regiones, provincias and comunas from the government DPA
// API and caches them for a day.
type DPAClient struct {
	base       string
	http       *http.Client
	regions    *Cache[[]Region]
	provincias *Cache[[]Provincia]
	comunas    *Cache[[]Comuna]
}

// NewDPAClient builds a client against the given base URL, typically
// https://apis.digital.gob.cl/dpa.
func NewDPAClient(base string) *DPAClient {
	return &DPAClient{
		base:       base,
		http:       &http.Client{Timeout: 10 * time.Second},
		regions:    NewCache[[]Region](DefaultTTL),
		provincias: NewCache[[]Provincia](DefaultTTL),
		comunas:    NewCache[[]Comuna](DefaultTTL),
	}
}

func (c *DPAClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dpa: %s responded %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Regiones lists all regiones, cached.
func (c *DPAClient) Regiones(ctx context.Context) ([]Region, error) {
	if v, ok := c.regions.Get("all"); ok {
		return v, nil
	}
	var out []Region
	if err := c.getJSON(ctx, c.base+"/regiones", &out); err != nil {
		return nil, err
	}
	c.regions.Set("all", out)
	return out, nil
}

// Provincias lists the provincias of a región, cached per región code.
func (c *DPAClient) Provincias(ctx context.Context, regionCode string) ([]Provincia, error) {
	if v, ok := c.provincias.Get(regionCode); ok {
		return v, nil
	}
	var out []Provincia
	url := fmt.Sprintf("%s/regiones/%s/provincias", c.base, regionCode)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	c.provincias.Set(regionCode, out)
	return out, nil
}

// Comunas lists the comunas of a región, cached per región code.
func (c *DPAClient) Comunas(ctx context.Context, regionCode string) ([]Comuna, error) {
	key := "region:" + regionCode
	if v, ok := c.comunas.Get(key); ok {
		return v, nil
	}
	var out []Comuna
	url := fmt.Sprintf("%s/regiones/%s/comunas", c.base, regionCode)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	c.comunas.Set(key, out)
	return out, nil
}

// ComunasDeProvincia lists the comunas of a provincia, cached per provincia
// code.
func (c *DPAClient) ComunasDeProvincia(ctx context.Context, provinciaCode string) ([]Comuna, error) {
	key := "provincia:" + provinciaCode
	if v, ok := c.comunas.Get(key); ok {
		return v, nil
	}
	var out []Comuna
	url := fmt.Sprintf("%s/provincias/%s/comunas", c.base, provinciaCode)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	c.comunas.Set(key, out)
	return out, nil
}
