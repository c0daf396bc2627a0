package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshview_vertex_uploads_total",
		Help: "Total number of vertex buffer uploads issued to the device",
	}, []string{"device"})
	UploadedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshview_vertex_uploaded_bytes_total",
		Help: "Total number of vertex bytes uploaded to the device",
	}, []string{"device"})
	AttributeBinds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshview_attribute_binds_total",
		Help: "Total number of vertex attribute bind commands issued",
	}, []string{"device"})
	AllocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshview_allocation_failures_total",
		Help: "Total number of buffer or vertex array identifiers the device refused",
	}, []string{"device"})
	LiveBuffers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "meshview_live_buffers",
		Help: "Number of vertex buffers currently allocated on the device",
	}, []string{"device"})
	LiveArrays = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "meshview_live_vertex_arrays",
		Help: "Number of vertex arrays currently allocated on the device",
	}, []string{"device"})
	GeometryReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshview_geometry_reloads_total",
		Help: "Total number of geometry library reloads, by result",
	}, []string{"result"})
)

type DeviceMetrics struct {
	Uploads            prometheus.Counter
	UploadedBytes      prometheus.Counter
	AttributeBinds     prometheus.Counter
	AllocationFailures prometheus.Counter
	LiveBuffers        prometheus.Gauge
	LiveArrays         prometheus.Gauge
}

func NewDeviceMetrics(name string) DeviceMetrics {
	d := DeviceMetrics{
		Uploads:            Uploads.WithLabelValues(name),
		UploadedBytes:      UploadedBytes.WithLabelValues(name),
		AttributeBinds:     AttributeBinds.WithLabelValues(name),
		AllocationFailures: AllocationFailures.WithLabelValues(name),
		LiveBuffers:        LiveBuffers.WithLabelValues(name),
		LiveArrays:         LiveArrays.WithLabelValues(name),
	}
	d.Uploads.Add(0)
	d.UploadedBytes.Add(0)
	d.AttributeBinds.Add(0)
	d.AllocationFailures.Add(0)
	return d
}

// Handler should usually be mounted at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
