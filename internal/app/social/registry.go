package social

import (
	"errors"
	"fmt"
)

var ErrDuplicateAdapter = errors.New("social: duplicate adapter")

// Registry 在启动时构建，之后只读，可以被多个请求并发使用。
type Registry struct {
	adapters map[PlatformID]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[PlatformID]Adapter, len(adapters))}
	for _, a := range adapters {
		p := a.Platform()
		if _, ok := ParsePlatform(string(p)); !ok {
			return nil, fmt.Errorf("social: adapter for unknown platform %q", p)
		}
		if _, dup := r.adapters[p]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, p)
		}
		r.adapters[p] = a
	}
	return r, nil
}

func (r *Registry) Lookup(platform string) (Adapter, bool) {
	p, ok := ParsePlatform(platform)
	if !ok {
		return nil, false
	}
	a, ok := r.adapters[p]
	return a, ok
}

// Platforms 按 SupportedPlatforms 的顺序返回已注册的平台。
func (r *Registry) Platforms() []PlatformID {
	out := make([]PlatformID, 0, len(r.adapters))
	for _, p := range supportedPlatforms {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
