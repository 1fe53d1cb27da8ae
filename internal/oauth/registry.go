package oauth

import "github.com/ipanov/UrbanAI-sub002/internal/config"

// Registry holds one configured client per provider.
type Registry struct {
	clients map[Provider]*Client
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{clients: map[Provider]*Client{
		Google:    NewClient(Google, cfg.Google),
		Microsoft: NewClient(Microsoft, cfg.Microsoft),
		Facebook:  NewClient(Facebook, cfg.Facebook),
	}}
}

// Client returns the client for p, or ErrUnsupportedProvider.
func (r *Registry) Client(p Provider) (*Client, error) {
	c, ok := r.clients[p]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return c, nil
}
