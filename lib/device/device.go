package device

// Device is the slice of the graphics context that vertex data needs.
// Every call must happen on the thread that owns the GL context.
// Gen* return 0 when the driver refuses to allocate an identifier.
type Device interface {
	GenBuffer() uint32
	DeleteBuffer(id uint32)
	GenVertexArray() uint32
	DeleteVertexArray(id uint32)

	// UploadFloats replaces the contents of buffer id with data
	UploadFloats(id uint32, data []float32)

	BindVertexArray(id uint32)
	// BindAttribute points attribute index at buffer id, read as tightly
	// packed floats of the given width
	BindAttribute(index uint32, id uint32, width int)
	EnableAttribute(index uint32)
	DisableAttribute(index uint32)
}

const f32 = 4

var VertexUploadCounter uint64
