// Package shader compiles and links OpenGL shader programs.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Program is a linked shader program with cached uniform locations.
type Program struct {
	ID       uint32
	uniforms map[string]int32
}

// New compiles and links vertexSrc and fragmentSrc.
func New(vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &Program{ID: id, uniforms: make(map[string]int32)}, nil
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the location of name, or -1 when the uniform is inactive.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// CompileProgram compiles both stages and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	stages := []struct {
		kind uint32
		name string
		src  string
	}{
		{gl.VERTEX_SHADER, "vertex", vertexSrc},
		{gl.FRAGMENT_SHADER, "fragment", fragmentSrc},
	}

	program := gl.CreateProgram()
	for _, st := range stages {
		id, err := compileStage(st.kind, st.src)
		if err != nil {
			gl.DeleteProgram(program)
			return 0, fmt.Errorf("%s shader: %w", st.name, err)
		}
		gl.AttachShader(program, id)
		// Attached shaders are freed with the program.
		gl.DeleteShader(id)
	}

	gl.LinkProgram(program)
	if msg, ok := status(program, gl.LINK_STATUS, gl.GetProgramiv, gl.GetProgramInfoLog); !ok {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", msg)
	}
	return program, nil
}

func compileStage(kind uint32, source string) (uint32, error) {
	id := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, csource, nil)
	free()
	gl.CompileShader(id)

	if msg, ok := status(id, gl.COMPILE_STATUS, gl.GetShaderiv, gl.GetShaderInfoLog); !ok {
		gl.DeleteShader(id)
		return 0, errors.New(msg)
	}
	return id, nil
}

// status reads a compile or link status and, on failure, the info log.
func status(id, param uint32,
	getiv func(uint32, uint32, *int32),
	getLog func(uint32, int32, *int32, *uint8),
) (string, bool) {
	var ok int32
	getiv(id, param, &ok)
	if ok != gl.FALSE {
		return "", true
	}
	var n int32
	getiv(id, gl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return "no info log", false
	}
	buf := make([]byte, n)
	getLog(id, n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\n"), false
}
