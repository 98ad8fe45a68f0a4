package logger

import (
	"io"
	"log/slog"
	"net/http"
	"time"
)

// countingBody：包装响应体以统计读取字节数，关闭时输出访问日志
type countingBody struct {
	io.ReadCloser
	bytes int64
	done  func(n int64)
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.bytes += int64(n)
	return n, err
}

func (b *countingBody) Close() error {
	err := b.ReadCloser.Close()
	if b.done != nil {
		b.done(b.bytes)
		b.done = nil
	}
	return err
}

// Transport：出站请求访问日志
// 约束：不读取请求体；URL 中的用户信息在日志中被隐去；base 为 nil 时使用 http.DefaultTransport
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	l := t.Logger
	if l == nil {
		l = L()
	}
	start := time.Now()
	resp, err := base.RoundTrip(r)
	if err != nil {
		l.Debug("http_client",
			"method", r.Method,
			"url", r.URL.Redacted(),
			"duration_ms", time.Since(start).Milliseconds(),
			"err", err,
		)
		return nil, err
	}
	status := resp.StatusCode
	resp.Body = &countingBody{ReadCloser: resp.Body, done: func(n int64) {
		l.Debug("http_client",
			"method", r.Method,
			"url", r.URL.Redacted(),
			"status", status,
			"bytes", n,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}}
	return resp, nil
}
