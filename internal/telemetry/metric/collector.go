package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/rudis-go/internal/infra/buildinfo"
)

// Collector reports static build information and process uptime.
type Collector struct {
	info  buildinfo.Info
	start time.Time
	now   func() time.Time

	buildInfo *prometheus.Desc
	uptime    *prometheus.Desc
}

// NewCollector creates a collector for the given build and start time.
func NewCollector(info buildinfo.Info, start time.Time) *Collector {
	return &Collector{
		info:  info,
		start: start,
		now:   time.Now,
		buildInfo: prometheus.NewDesc(
			prometheus.BuildFQName(DefaultNamespace, "", "build_info"),
			"Build information of the running server.",
			[]string{"version", "commit", "go_version"}, nil,
		),
		uptime: prometheus.NewDesc(
			prometheus.BuildFQName(DefaultNamespace, "", "uptime_seconds"),
			"Seconds since the server started.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buildInfo
	ch <- c.uptime
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.buildInfo, prometheus.GaugeValue, 1,
		c.info.Version, c.info.Commit, c.info.GoVersion)
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue,
		c.now().Sub(c.start).Seconds())
}
