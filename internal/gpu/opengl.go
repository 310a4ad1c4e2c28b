//go:build opengl

package gpu

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
)

func init() {
	Register("opengl", func() (Device, error) { return NewOpenGL() })
}

// OpenGL runs compute kernels as GLSL 4.30 compute shaders over shader
// storage buffers. A GL 4.3 context must be current on the calling thread
// for the lifetime of the device; every method must be called from it.
type OpenGL struct {
	renderer string
	closed   bool
	buffers  []*glBuffer
	programs []*glPipeline
}

// NewOpenGL loads GL entry points from the current context.
func NewOpenGL() (*OpenGL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: failed to init opengl: %v", ErrUnavailable, err)
	}

	var maxWorkGroupCount [3]int32
	var maxWorkGroupSize [3]int32
	gl.GetIntegeri_v(gl.MAX_COMPUTE_WORK_GROUP_COUNT, 0, &maxWorkGroupCount[0])
	gl.GetIntegeri_v(gl.MAX_COMPUTE_WORK_GROUP_SIZE, 0, &maxWorkGroupSize[0])
	if maxWorkGroupCount[0] == 0 {
		return nil, fmt.Errorf("%w: context has no compute shader support", ErrUnavailable)
	}

	d := &OpenGL{renderer: gl.GoStr(gl.GetString(gl.RENDERER))}
	log.Printf("gpu-opengl: compute initialized on %s (max workgroups %v, max workgroup size %v)",
		d.renderer, maxWorkGroupCount, maxWorkGroupSize)
	return d, nil
}

func (d *OpenGL) Name() string { return "opengl (" + d.renderer + ")" }

type glBuffer struct {
	dev   *OpenGL
	label string
	id    uint32
	n     int
}

func (b *glBuffer) Label() string { return b.label }
func (b *glBuffer) Len() int      { return b.n }

func (d *OpenGL) CreateBuffer(label string, cells int) (Buffer, error) {
	return d.createBuffer(label, cells, nil)
}

func (d *OpenGL) CreateBufferInit(label string, data []uint32) (Buffer, error) {
	return d.createBuffer(label, len(data), data)
}

func (d *OpenGL) createBuffer(label string, cells int, data []uint32) (Buffer, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if cells <= 0 {
		return nil, fmt.Errorf("%w: %s wants %d cells", ErrBufferSize, label, cells)
	}
	b := &glBuffer{dev: d, label: label, n: cells}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.id)
	if data != nil {
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, cells*4, gl.Ptr(data), gl.DYNAMIC_COPY)
	} else {
		zero := make([]uint32, cells)
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, cells*4, gl.Ptr(zero), gl.DYNAMIC_COPY)
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	d.buffers = append(d.buffers, b)
	return b, nil
}

type glPipeline struct {
	dev     *OpenGL
	label   string
	tile    int
	program uint32
	sideLoc int32
}

func (p *glPipeline) Label() string { return p.label }
func (p *glPipeline) TileSize() int { return p.tile }

func (d *OpenGL) CreatePipeline(desc PipelineDescriptor) (Pipeline, error) {
	if desc.GLSL == "" {
		return nil, fmt.Errorf("%w: %s has no GLSL source", ErrPipeline, desc.Label)
	}
	program, err := createComputeProgram(desc.GLSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPipeline, desc.Label, err)
	}
	p := &glPipeline{
		dev:     d,
		label:   desc.Label,
		tile:    desc.TileSize,
		program: program,
		sideLoc: gl.GetUniformLocation(program, gl.Str("side\x00")),
	}
	d.programs = append(d.programs, p)
	return p, nil
}

func (d *OpenGL) CreateEncoder(label string) Encoder {
	return &glEncoder{dev: d, label: label}
}

// Submit replays the recorded GL calls. The driver queues them; nothing
// here waits for the GPU.
func (d *OpenGL) Submit(cb CommandBuffer) error {
	gcb, ok := cb.(*glCommandBuffer)
	if !ok || gcb.dev != d {
		return ErrForeignResource
	}
	if d.closed {
		return ErrClosed
	}
	for _, cmd := range gcb.cmds {
		cmd()
	}
	gl.Flush()
	return nil
}

// ReadBuffer maps the buffer contents back. GL orders the read after every
// previously issued command touching the buffer.
func (d *OpenGL) ReadBuffer(ctx context.Context, b Buffer) ([]uint32, error) {
	gb, ok := b.(*glBuffer)
	if !ok || gb.dev != d {
		return nil, ErrForeignResource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readGL(gb), nil
}

func (d *OpenGL) WaitIdle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gl.Finish()
	return nil
}

func (d *OpenGL) Close() error {
	if d.closed {
		return nil
	}
	for _, b := range d.buffers {
		gl.DeleteBuffers(1, &b.id)
	}
	for _, p := range d.programs {
		gl.DeleteProgram(p.program)
	}
	d.buffers, d.programs = nil, nil
	d.closed = true
	return nil
}

func readGL(b *glBuffer) []uint32 {
	out := make([]uint32, b.n)
	gl.MemoryBarrier(gl.BUFFER_UPDATE_BARRIER_BIT)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.id)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, b.n*4, gl.Ptr(out))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	return out
}

type glCommandBuffer struct {
	dev   *OpenGL
	label string
	cmds  []func()
}

func (c *glCommandBuffer) Label() string { return c.label }
func (c *glCommandBuffer) Len() int      { return len(c.cmds) }

type glEncoder struct {
	dev   *OpenGL
	label string
	cmds  []func()
	err   error
}

func (e *glEncoder) fail(err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s: %w", e.label, err)
	}
}

func (e *glEncoder) buffer(b Buffer) *glBuffer {
	gb, ok := b.(*glBuffer)
	if !ok || gb.dev != e.dev {
		e.fail(fmt.Errorf("%w: buffer %v", ErrForeignResource, b))
		return nil
	}
	return gb
}

func (e *glEncoder) WriteBuffer(dst Buffer, data []uint32) {
	gb := e.buffer(dst)
	if gb == nil {
		return
	}
	if len(data) > gb.n {
		e.fail(fmt.Errorf("%w: write of %d cells into %s (%d)", ErrBufferSize, len(data), gb.label, gb.n))
		return
	}
	cp := make([]uint32, len(data))
	copy(cp, data)
	e.cmds = append(e.cmds, func() {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, gb.id)
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(cp)*4, gl.Ptr(cp))
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	})
}

func (e *glEncoder) Dispatch(p Pipeline, bg BindGroup, params Params, groupsX, groupsY uint32) {
	gp, ok := p.(*glPipeline)
	if !ok || gp.dev != e.dev {
		e.fail(fmt.Errorf("%w: pipeline %v", ErrForeignResource, p))
		return
	}
	read, write := e.buffer(bg.Read), e.buffer(bg.Write)
	if read == nil || write == nil {
		return
	}
	if read == write {
		e.fail(fmt.Errorf("%w: %s", ErrAliasedBinding, read.label))
		return
	}
	cells := int(params.Side) * int(params.Side)
	if read.n < cells || write.n < cells {
		e.fail(fmt.Errorf("%w: side %d needs %d cells", ErrBufferSize, params.Side, cells))
		return
	}
	e.cmds = append(e.cmds, func() {
		gl.UseProgram(gp.program)
		gl.Uniform1ui(gp.sideLoc, params.Side)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, read.id)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 1, write.id)
		gl.DispatchCompute(groupsX, groupsY, 1)
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
		gl.UseProgram(0)
	})
}

// Draw reads the buffer back and hands it to the target's rasterizer.
func (e *glEncoder) Draw(dst Target, src Buffer, side int) {
	if dst == nil {
		e.fail(fmt.Errorf("%w: nil target", ErrFrameUnavailable))
		return
	}
	gb := e.buffer(src)
	if gb == nil {
		return
	}
	if gb.n < side*side {
		e.fail(fmt.Errorf("%w: draw of side %d from %s", ErrBufferSize, side, gb.label))
		return
	}
	e.cmds = append(e.cmds, func() {
		cells := readGL(gb)
		dst.DrawCells(cells[:side*side], side)
		dst.Present()
	})
}

func (e *glEncoder) Finish() (CommandBuffer, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &glCommandBuffer{dev: e.dev, label: e.label, cmds: e.cmds}, nil
}

func createComputeProgram(source string) (uint32, error) {
	content := source + "\x00"

	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(content)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(infoLog))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile compute shader: %v", infoLog)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program")
	}
	return program, nil
}
