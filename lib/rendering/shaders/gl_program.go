package shaders

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Program is the linked mesh program and the uniforms the viewer sets
type Program struct {
	ID uint32

	ProjectionUniform int32
	ViewUniform       int32
	ModelUniform      int32
	TextureUniform    int32
	HasColourUniform  int32
	HasNormalUniform  int32
}

// BuildGLProgram renders and links the mesh shaders. If debugDir is not
// empty the rendered sources are written there.
func BuildGLProgram(shaderData *ShaderData, debugDir string) (*Program, error) {
	shaderer, err := NewShaderer()
	if err != nil {
		return nil, fmt.Errorf("could not get shaders: %w", err)
	}

	vertexShader, err := shaderer.GetShaderSource("mesh.vert", shaderData)
	if err != nil {
		return nil, fmt.Errorf("could not get vertex shader: %w", err)
	}

	fragmentShader, err := shaderer.GetShaderSource("mesh.frag", shaderData)
	if err != nil {
		return nil, fmt.Errorf("could not get fragment shader: %w", err)
	}

	if debugDir != "" {
		writeFileDebug(debugDir+"/mesh.vert", vertexShader)
		writeFileDebug(debugDir+"/mesh.frag", fragmentShader)
	}

	id, err := newProgram(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("could not init shader: %w", err)
	}

	p := &Program{
		ID:                id,
		ProjectionUniform: gl.GetUniformLocation(id, gl.Str("u_Projection\x00")),
		ViewUniform:       gl.GetUniformLocation(id, gl.Str("u_View\x00")),
		ModelUniform:      gl.GetUniformLocation(id, gl.Str("u_Model\x00")),
		TextureUniform:    gl.GetUniformLocation(id, gl.Str("in_Texture\x00")),
		HasColourUniform:  gl.GetUniformLocation(id, gl.Str("u_HasColour\x00")),
		HasNormalUniform:  gl.GetUniformLocation(id, gl.Str("u_HasNormal\x00")),
	}
	return p, nil
}

func (p *Program) Delete() {
	gl.DeleteProgram(p.ID)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}

	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()

	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		logmsg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logmsg))

		return 0, fmt.Errorf("failed to link program: %v", logmsg)
	}

	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	size := int32(len(source))
	gl.ShaderSource(shader, 1, csources, &size)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		clog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(clog))

		return 0, fmt.Errorf("failed to compile %v: %v", source, clog)
	}

	return shader, nil
}

func writeFileDebug(filename string, content string) {
	err := os.WriteFile(filename, []byte(content), 0o644)
	if err != nil {
		slog.Warn(fmt.Sprintf("could not write debug file %s: %s", filename, err), slog.String("module", "shaders"))
	}
}
