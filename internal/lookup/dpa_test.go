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

func TestRegionesCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/regiones", r.URL.Path)
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"codigo":"13","nombre":"Metropolitana de Santiago"},{"codigo":"05","nombre":"Valparaíso"}]`))
	}))
	t.Cleanup(srv.Close)

	c := NewDPAClient(srv.URL)
	for i := 0; i < 2; i++ {
		got, err := c.Regiones(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "13", got[0].Code)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestComunasCachedPerRegion(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/regiones/13/comunas":
			_, _ = w.Write([]byte(`[{"codigo":"13101","nombre":"Santiago"}]`))
		case "/regiones/05/comunas":
			_, _ = w.Write([]byte(`[{"codigo":"05101","nombre":"Valparaíso"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewDPAClient(srv.URL)
	got, err := c.Comunas(context.Background(), "13")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Santiago", got[0].Name)

	_, err = c.Comunas(context.Background(), "05")
	require.NoError(t, err)
	_, err = c.Comunas(context.Background(), "13")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestProvinciasCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/regiones/13/provincias", r.URL.Path)
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"codigo":"131","nombre":"Santiago"},{"codigo":"132","nombre":"Cordillera"}]`))
	}))
	t.Cleanup(srv.Close)

	c := NewDPAClient(srv.URL)
	for i := 0; i < 2; i++ {
		got, err := c.Provincias(context.Background(), "13")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Cordillera", got[1].Name)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestComunasPorProvinciaDoesNotShareRegionCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/regiones/131/comunas":
			_, _ = w.Write([]byte(`[{"codigo":"13101","nombre":"Santiago"},{"codigo":"13119","nombre":"Maipú"}]`))
		case "/provincias/131/comunas":
			_, _ = w.Write([]byte(`[{"codigo":"13101","nombre":"Santiago"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	// "131" as region code and "131" as provincia code are distinct cache
	// entries and hit distinct upstream routes.
	c := NewDPAClient(srv.URL)
	porRegion, err := c.Comunas(context.Background(), "131")
	require.NoError(t, err)
	require.Len(t, porRegion, 2)

	porProvincia, err := c.ComunasDeProvincia(context.Background(), "131")
	require.NoError(t, err)
	require.Len(t, porProvincia, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDPANon200IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewDPAClient(srv.URL).Regiones(context.Background())
	assert.Error(t, err)
}
