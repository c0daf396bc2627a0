// Package devicetest provides an in-memory device.Device that records what
// it was asked to do, for tests that cannot open a GL context.
package devicetest

import (
	"fmt"
	"slices"
)

type Call struct {
	Op     string
	ID     uint32
	Index  uint32
	Width  int
	Floats int
}

func (c Call) String() string {
	switch c.Op {
	case "upload":
		return fmt.Sprintf("upload(%d, %d floats)", c.ID, c.Floats)
	case "bind-attribute":
		return fmt.Sprintf("bind-attribute(%d <- %d, width %d)", c.Index, c.ID, c.Width)
	case "enable", "disable":
		return fmt.Sprintf("%s(%d)", c.Op, c.Index)
	default:
		return fmt.Sprintf("%s(%d)", c.Op, c.ID)
	}
}

type Recorder struct {
	Calls []Call

	// FailBuffers and FailArrays make the next allocations return 0
	FailBuffers bool
	FailArrays  bool

	nextID  uint32
	data    map[uint32][]float32
	deleted map[uint32]int
	enabled map[uint32]bool
}

func New() *Recorder {
	return &Recorder{
		data:    make(map[uint32][]float32),
		deleted: make(map[uint32]int),
		enabled: make(map[uint32]bool),
	}
}

func (r *Recorder) record(c Call) {
	r.Calls = append(r.Calls, c)
}

func (r *Recorder) GenBuffer() uint32 {
	if r.FailBuffers {
		return 0
	}
	r.nextID++
	r.record(Call{Op: "gen-buffer", ID: r.nextID})
	return r.nextID
}

func (r *Recorder) DeleteBuffer(id uint32) {
	r.deleted[id]++
	r.record(Call{Op: "delete-buffer", ID: id})
}

func (r *Recorder) GenVertexArray() uint32 {
	if r.FailArrays {
		return 0
	}
	r.nextID++
	r.record(Call{Op: "gen-array", ID: r.nextID})
	return r.nextID
}

func (r *Recorder) DeleteVertexArray(id uint32) {
	r.deleted[id]++
	r.record(Call{Op: "delete-array", ID: id})
}

func (r *Recorder) UploadFloats(id uint32, data []float32) {
	r.data[id] = slices.Clone(data)
	r.record(Call{Op: "upload", ID: id, Floats: len(data)})
}

func (r *Recorder) BindVertexArray(id uint32) {
	r.record(Call{Op: "bind-array", ID: id})
}

func (r *Recorder) BindAttribute(index uint32, id uint32, width int) {
	r.record(Call{Op: "bind-attribute", ID: id, Index: index, Width: width})
}

func (r *Recorder) EnableAttribute(index uint32) {
	r.enabled[index] = true
	r.record(Call{Op: "enable", Index: index})
}

func (r *Recorder) DisableAttribute(index uint32) {
	r.enabled[index] = false
	r.record(Call{Op: "disable", Index: index})
}

// Reset forgets the recorded calls but keeps device state
func (r *Recorder) Reset() {
	r.Calls = nil
}

func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the recorded calls of the given kinds, in order
func (r *Recorder) Filter(ops ...string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if slices.Contains(ops, c.Op) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Data(id uint32) []float32 {
	return r.data[id]
}

func (r *Recorder) Deleted(id uint32) int {
	return r.deleted[id]
}

func (r *Recorder) Enabled(index uint32) bool {
	return r.enabled[index]
}
