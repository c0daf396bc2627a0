package device

import (
	"github.com/fosdem/meshview/lib/metrics"
)

// Instrumented forwards to another Device and keeps count of what went
// over the bus.
type Instrumented struct {
	Device

	m metrics.DeviceMetrics
}

func NewInstrumented(name string, dev Device) *Instrumented {
	return &Instrumented{
		Device: dev,
		m:      metrics.NewDeviceMetrics(name),
	}
}

func (i *Instrumented) GenBuffer() uint32 {
	id := i.Device.GenBuffer()
	if id == 0 {
		i.m.AllocationFailures.Inc()
		return 0
	}
	i.m.LiveBuffers.Inc()
	return id
}

func (i *Instrumented) DeleteBuffer(id uint32) {
	i.Device.DeleteBuffer(id)
	i.m.LiveBuffers.Dec()
}

func (i *Instrumented) GenVertexArray() uint32 {
	id := i.Device.GenVertexArray()
	if id == 0 {
		i.m.AllocationFailures.Inc()
		return 0
	}
	i.m.LiveArrays.Inc()
	return id
}

func (i *Instrumented) DeleteVertexArray(id uint32) {
	i.Device.DeleteVertexArray(id)
	i.m.LiveArrays.Dec()
}

func (i *Instrumented) UploadFloats(id uint32, data []float32) {
	i.Device.UploadFloats(id, data)
	n := uint64(len(data) * f32)
	i.m.Uploads.Inc()
	i.m.UploadedBytes.Add(float64(n))
	VertexUploadCounter += n
}

func (i *Instrumented) BindAttribute(index uint32, id uint32, width int) {
	i.Device.BindAttribute(index, id, width)
	i.m.AttributeBinds.Inc()
}
