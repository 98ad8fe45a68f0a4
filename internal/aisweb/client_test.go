package aisweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-pma/internal/feature"
)

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *mapCache) Get(_ context.Context, layer string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[layer]
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, layer string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[layer] = body
	return nil
}

func TestLayerURL(t *testing.T) {
	assert.Equal(t,
		"https://geoaisweb.decea.mil.br/geoserver/ICA/ows?service=WFS&version=1.0.0&request=GetFeature&typeName=ICA:runway_v2&outputFormat=application%2Fjson",
		LayerURL("", "runway_v2"))
	assert.Contains(t, LayerURL("http://x/ows?token=1", "vor"), "ows?token=1&service=WFS")
}

func TestFetchLayer(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		q := r.URL.Query()
		assert.Equal(t, "GetFeature", q.Get("request"))
		assert.Equal(t, "ICA:vor", q.Get("typeName"))
		assert.Equal(t, "application/json", q.Get("outputFormat"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "u", user)
		assert.Equal(t, "p", pass)
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	cache := &mapCache{}
	c := &Client{BaseURL: srv.URL, User: "u", Pass: "p", HTTP: srv.Client(), Cache: cache}
	body, err := c.Layer(context.Background(), feature.KindVOR)
	require.NoError(t, err)
	assert.JSONEq(t, `{"features":[]}`, string(body))

	// 第二次命中缓存
	_, err = c.FetchLayer(context.Background(), "vor")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.Contains(t, cache.m, "vor")
}

func TestFetchLayerStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cache := &mapCache{}
	c := &Client{BaseURL: srv.URL, HTTP: srv.Client(), Cache: cache}
	_, err := c.FetchLayer(context.Background(), "ndb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Empty(t, cache.m)
}

func TestLayerDerivedKind(t *testing.T) {
	c := &Client{}
	_, err := c.Layer(context.Background(), feature.KindCompleteThreshold)
	assert.Error(t, err)
}
