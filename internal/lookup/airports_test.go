package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airportsCSV = `"id","ident","type","name","latitude_deg","longitude_deg","elevation_ft","continent","iso_country","iso_region","municipality","scheduled_service","gps_code","iata_code"
"1","SCEL","large_airport","Arturo Merino Benitez International Airport","-33.39","-70.79","1555","SA","CL","CL-RM","Santiago","yes","SCEL","SCL"
"2","SCFA","medium_airport","Andres Sabella Galvez International Airport","-23.44","-70.44","455","SA","CL","CL-AN","Antofagasta","yes","SCFA","ANF"
"3","SCSE","medium_airport","La Florida Airport","-29.91","-71.19","481","SA","CL","CL-CO","La Serena-Coquimbo","yes","SCSE","LSC"
"4","SCXX","heliport","Mina Heliport","-24.00","-69.00","9000","SA","CL","CL-AN","Calama","no","SCXX","XXA"
"5","SCYY","closed","Old Strip","-30.00","-71.00","100","SA","CL","CL-CO","Ovalle","no","",""
"6","SABE","medium_airport","Jorge Newbery Airfield","-34.55","-58.41","18","SA","AR","AR-C","Buenos Aires","yes","SABE","AEP"
`

func airportsServer(t *testing.T) (*AirportsClient, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(airportsCSV))
	}))
	t.Cleanup(srv.Close)
	return NewAirportsClient(srv.URL), &hits
}

func TestSearchExactIATARanksFirst(t *testing.T) {
	c, _ := airportsServer(t)

	got, err := c.Search(context.Background(), "scl", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "SCL", got[0].IATA)
	assert.Equal(t, "Santiago", got[0].City)
}

func TestSearchCityPrefixBeforeContains(t *testing.T) {
	c, _ := airportsServer(t)

	// "an" is a city prefix for Antofagasta and a substring elsewhere
	got, err := c.Search(context.Background(), "an", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "ANF", got[0].IATA)
}

func TestSearchSkipsHeliportsAndClosed(t *testing.T) {
	c, _ := airportsServer(t)

	got, err := c.Search(context.Background(), "calama", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchCachesDataset(t *testing.T) {
	c, hits := airportsServer(t)

	_, err := c.Search(context.Background(), "scl", 10)
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "aep", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSearchLimitAndEmptyQuery(t *testing.T) {
	c, _ := airportsServer(t)

	got, err := c.Search(context.Background(), "a", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = c.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadFailsOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewAirportsClient(srv.URL).Search(context.Background(), "scl", 10)
	assert.Error(t, err)
}
