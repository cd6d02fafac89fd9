package providers

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Plaintext returns a literal value. Its id contains the value itself, so it is
// only meant for testing and must not be used in production.
type Plaintext struct {
	baseProvider
	plaintext string
}

func (r *Registry) Plaintext(value string, trim TrimPolicy) (Provider, error) {
	if err := requireParam(TypePlaintext, "value", value); err != nil {
		return nil, err
	}
	p, err := r.Register(&Plaintext{
		baseProvider: baseProvider{id: "plaintext:" + value, trim: trim},
		plaintext:    value,
	})
	if err != nil {
		return nil, err
	}
	log.Warningf("Plaintext secret \"%s\" created. Don't use this in production!", value)
	return p, nil
}

func (p *Plaintext) Descriptor() Descriptor {
	return Descriptor{
		Type:   TypePlaintext,
		Params: map[string]string{"value": p.plaintext},
		Trim:   p.trim,
	}
}

func (p *Plaintext) Value(ctx context.Context) (string, error) {
	log.Warningf("Plaintext secret \"%s\" value used. Don't use this in production!", p.plaintext)
	return p.resolve(ctx, func(ctx context.Context) (string, error) {
		return p.plaintext, nil
	})
}
