package rendering

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

const f32 = 4

// GLDevice issues vertex data commands to the current GL context
type GLDevice struct{}

func (GLDevice) GenBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (GLDevice) DeleteBuffer(id uint32) {
	gl.DeleteBuffers(1, &id)
}

func (GLDevice) GenVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (GLDevice) DeleteVertexArray(id uint32) {
	gl.DeleteVertexArrays(1, &id)
}

func (GLDevice) UploadFloats(id uint32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*f32, gl.Ptr(&data[0]), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (GLDevice) BindVertexArray(id uint32) {
	gl.BindVertexArray(id)
}

func (GLDevice) BindAttribute(index uint32, id uint32, width int) {
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	gl.VertexAttribPointerWithOffset(index, int32(width), gl.FLOAT, false, 0, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (GLDevice) EnableAttribute(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (GLDevice) DisableAttribute(index uint32) {
	gl.DisableVertexAttribArray(index)
}
