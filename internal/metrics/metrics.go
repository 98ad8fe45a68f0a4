package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FetchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopma_fetch_requests_total",
		Help: "Total WFS GetFeature requests by layer",
	}, []string{"layer"})
	FetchFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopma_fetch_fail_total",
		Help: "Total WFS GetFeature failures by layer",
	}, []string{"layer"})
	FetchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geopma_fetch_duration_ms",
		Help:    "WFS GetFeature duration in milliseconds",
		Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
	}, []string{"layer"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geopma_cache_hits_total",
		Help: "Total layer cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geopma_cache_misses_total",
		Help: "Total layer cache misses",
	})
	JoinedThresholds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geopma_joined_thresholds_total",
		Help: "Total complete thresholds produced by the join",
	})
	LinesWrittenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopma_lines_written_total",
		Help: "Lines written to output files by kind",
	}, []string{"kind"})
	LinesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopma_lines_skipped_total",
		Help: "Records that produced no line by kind",
	}, []string{"kind"})
	LinesFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopma_lines_failed_total",
		Help: "Line write failures by kind",
	}, []string{"kind"})
	SubstitutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geopma_encoding_substitutions_total",
		Help: "Characters replaced by numeric references during Windows-1252 encoding",
	}, []string{"kind"})
	ArchiveRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geopma_archive_rows_total",
		Help: "Lines inserted into the run archive",
	})
	PublishBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geopma_publish_bytes_total",
		Help: "Bytes handed to the publish backend",
	})
)

func init() {
	prometheus.MustRegister(FetchRequestsTotal)
	prometheus.MustRegister(FetchFailTotal)
	prometheus.MustRegister(FetchDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(JoinedThresholds)
	prometheus.MustRegister(LinesWrittenTotal)
	prometheus.MustRegister(LinesSkippedTotal)
	prometheus.MustRegister(LinesFailedTotal)
	prometheus.MustRegister(SubstitutionsTotal)
	prometheus.MustRegister(ArchiveRowsTotal)
	prometheus.MustRegister(PublishBytesTotal)
}

// 文档注释：将默认注册表写为 Prometheus 文本格式文件
// 背景：转换器为一次性进程，无 /metrics 监听；由 node_exporter textfile collector 采集。
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
