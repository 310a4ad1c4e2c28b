package life

import (
	"fmt"

	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/grid"
)

// Buffers coordinates the two device buffers that hold successive
// generations. Swapping is a parity flip; no cells are copied.
type Buffers struct {
	a, b       gpu.Buffer
	groups     [2]gpu.BindGroup
	generation uint64
}

// NewBuffers uploads initial into buffer A and allocates an empty buffer B.
func NewBuffers(dev gpu.Device, initial grid.Grid) (*Buffers, error) {
	a, err := dev.CreateBufferInit("cells_a", initial.Cells)
	if err != nil {
		return nil, fmt.Errorf("life: buffer A: %w", err)
	}
	b, err := dev.CreateBuffer("cells_b", initial.Len())
	if err != nil {
		return nil, fmt.Errorf("life: buffer B: %w", err)
	}
	return &Buffers{
		a: a,
		b: b,
		groups: [2]gpu.BindGroup{
			{Read: a, Write: b},
			{Read: b, Write: a},
		},
	}, nil
}

// Generation returns how many generations have been produced.
func (b *Buffers) Generation() uint64 { return b.generation }

func (b *Buffers) parity() int { return int(b.generation % 2) }

// Current returns the buffer holding the latest generation.
func (b *Buffers) Current() gpu.Buffer {
	if b.parity() == 0 {
		return b.a
	}
	return b.b
}

// Next returns the buffer the next generation is written to.
func (b *Buffers) Next() gpu.Buffer {
	if b.parity() == 0 {
		return b.b
	}
	return b.a
}

// BindGroup reads Current and writes Next.
func (b *Buffers) BindGroup() gpu.BindGroup { return b.groups[b.parity()] }

// Advance makes Next the current buffer.
func (b *Buffers) Advance() { b.generation++ }

func (b *Buffers) A() gpu.Buffer { return b.a }
func (b *Buffers) B() gpu.Buffer { return b.b }
