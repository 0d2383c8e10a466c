package buffer

import (
	"sync"
)

// DefaultSize matches the Telegram upload part size, so one pooled buffer
// holds exactly one part.
const DefaultSize = 512 * 1024

// Pool hands out fixed-size byte slices. Slices that come back smaller than
// the pool size are dropped.
type Pool struct {
	pool sync.Pool
	size int
}

func NewPool(size int) *Pool {
	p := &Pool{size: size}
	p.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return p
}

func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) Get() []byte {
	return (*p.pool.Get().(*[]byte))[:p.size]
}

func (p *Pool) Put(b []byte) {
	if cap(b) < p.size {
		return
	}
	b = b[:p.size]
	p.pool.Put(&b)
}

var Default = NewPool(DefaultSize)

func Get() []byte {
	return Default.Get()
}

func Put(b []byte) {
	Default.Put(b)
}
