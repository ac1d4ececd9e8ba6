package system

import (
	"image"
	"sync"
)

// CanvasPool переиспользует кадры одинакового размера, чтобы не нагружать GC
// при покадровой отрисовке.
type CanvasPool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewCanvasPool()

func NewCanvasPool() *CanvasPool {
	return &CanvasPool{pools: make(map[image.Rectangle]*sync.Pool)}
}

// GetCanvas returns a fully transparent canvas of the given bounds.
func GetCanvas(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

func PutCanvas(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *CanvasPool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

func (p *CanvasPool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
