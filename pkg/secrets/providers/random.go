package providers

import (
	"context"
	"strconv"

	"github.com/awesome-it/adeploy/pkg/types"
	"github.com/awesome-it/adeploy/pkg/utils"
)

// Random is a generated password. The value is created once per process and
// never persisted, so a reloaded provider has a new value.
type Random struct {
	baseProvider
	name   string
	length int
}

func (r *Registry) Random(name string, length int) (Provider, error) {
	if err := requireParam(TypeRandom, "name", name); err != nil {
		return nil, err
	}
	id := "random:" + name
	if _, ok := r.Get(id); ok {
		// resolves to the existing instance or a duplicate error, no need to generate a value
		return r.Register(&Random{baseProvider: baseProvider{id: id}, name: name, length: length})
	}

	v, err := utils.RandomPassword(length)
	if err != nil {
		return nil, &types.ConfigError{Err: err}
	}
	return r.Register(&Random{
		baseProvider: baseProvider{id: id, resolved: true, value: v},
		name:         name,
		length:       length,
	})
}

func (p *Random) Descriptor() Descriptor {
	return Descriptor{
		Type: TypeRandom,
		Params: map[string]string{
			"name":   p.name,
			"length": strconv.Itoa(p.length),
		},
	}
}

func (p *Random) Value(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, nil
}
