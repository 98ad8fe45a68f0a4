// 包 aisweb：DECEA GeoServer WFS 客户端，按图层拉取 GeoJSON FeatureCollection
package aisweb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"geo-pma/internal/feature"
	"geo-pma/internal/logger"
	"geo-pma/internal/metrics"
)

const DefaultBaseURL = "https://geoaisweb.decea.mil.br/geoserver/ICA/ows"

// Cache：图层响应体缓存（可选）
// 约束：Get 未命中返回 (nil, false, nil)；缓存错误不影响拉取，只记录日志。
type Cache interface {
	Get(ctx context.Context, layer string) ([]byte, bool, error)
	Set(ctx context.Context, layer string, body []byte) error
}

// LayerURL 构造 GetFeature 请求地址
func LayerURL(base, layer string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "service=WFS&version=1.0.0&request=GetFeature&typeName=ICA:" +
		url.QueryEscape(layer) + "&outputFormat=application%2Fjson"
}

// Client：WFS 客户端
// HTTP 为空时使用 60s 超时、带访问日志的默认客户端；User 非空时附加 Basic 认证。
type Client struct {
	BaseURL string
	User    string
	Pass    string
	HTTP    *http.Client
	Cache   Cache
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 60 * time.Second, Transport: &logger.Transport{}}
}

// Layer 按种类拉取，派生种类返回错误
func (c *Client) Layer(ctx context.Context, k feature.Kind) ([]byte, error) {
	layer := k.Layer()
	if layer == "" {
		return nil, fmt.Errorf("kind %s has no WFS layer", k)
	}
	return c.FetchLayer(ctx, layer)
}

// 文档注释：拉取单个图层的 GeoJSON
// 参数：
// - ctx：请求上下文，用于控制超时与取消；
// - layer：ICA 工作区下的图层名（airport、vor、ndb、waypoint、rwydirection、runway_v2）。
// 返回：原始响应体；非 200 状态返回错误并附带状态码。
// 约束：配置了 Cache 时先查缓存，成功拉取后回填；不在此处解码。
func (c *Client) FetchLayer(ctx context.Context, layer string) ([]byte, error) {
	l := logger.L()
	if c.Cache != nil {
		body, ok, err := c.Cache.Get(ctx, layer)
		if err != nil {
			l.Warn("aisweb_cache_get_error", "layer", layer, "err", err)
		} else if ok {
			metrics.CacheHitsTotal.Inc()
			l.Debug("aisweb_cache_hit", "layer", layer, "bytes", len(body))
			return body, nil
		}
		metrics.CacheMissesTotal.Inc()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, LayerURL(c.BaseURL, layer), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.User != "" {
		req.SetBasicAuth(c.User, c.Pass)
	}
	t0 := time.Now()
	metrics.FetchRequestsTotal.WithLabelValues(layer).Inc()
	l.Debug("aisweb_req", "layer", layer)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		l.Error("aisweb_http_error", "layer", layer, "err", err)
		metrics.FetchFailTotal.WithLabelValues(layer).Inc()
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		l.Error("aisweb_read_error", "layer", layer, "err", err)
		metrics.FetchFailTotal.WithLabelValues(layer).Inc()
		return nil, err
	}
	dur := time.Since(t0).Milliseconds()
	metrics.FetchDurationMs.WithLabelValues(layer).Observe(float64(dur))
	l.Debug("aisweb_resp", "layer", layer, "status", resp.StatusCode, "bytes", len(body), "duration_ms", dur)
	if resp.StatusCode != http.StatusOK {
		metrics.FetchFailTotal.WithLabelValues(layer).Inc()
		return nil, fmt.Errorf("aisweb %s: unexpected status %d", layer, resp.StatusCode)
	}
	if c.Cache != nil {
		if err := c.Cache.Set(ctx, layer, body); err != nil {
			l.Warn("aisweb_cache_set_error", "layer", layer, "err", err)
		}
	}
	return body, nil
}
