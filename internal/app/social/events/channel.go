package events

import (
	"sync"

	"socialgw.local/internal/platform/metrics"
)

// ChannelCollector 基于有界 channel，满了就丢，不阻塞请求。
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan DispatchEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &ChannelCollector{ch: make(chan DispatchEvent, bufferSize)}
}

func (c *ChannelCollector) Collect(event DispatchEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
		metrics.EventsDroppedTotal.Inc()
	}
}

func (c *ChannelCollector) Events() <-chan DispatchEvent {
	return c.ch
}

// Close 可以重复调用。Close 之后 Collect 直接返回。
func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
