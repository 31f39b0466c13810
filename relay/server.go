// Package relay exposes nova models behind an OpenAI-compatible HTTP
// surface.
package relay

import (
	"context"

	"github.com/Laisky/errors/v2"
	cache "github.com/patrickmn/go-cache"

	"github.com/fuchsia74/nova-agent/common/config"
	"github.com/fuchsia74/nova-agent/nova"
)

// BindFunc resolves a model name and tool binding to a requester. The
// default implementation builds (and caches) real Bedrock-backed models;
// tests substitute fakes.
type BindFunc func(ctx context.Context, model string, params nova.AgentModelParams) (nova.Requester, error)

// Server holds the relay's model cache and request handlers.
type Server struct {
	models *cache.Cache
	bind   BindFunc
}

// NewServer builds a Server backed by real Bedrock models.
func NewServer() *Server {
	s := &Server{
		models: cache.New(config.ModelCacheTTL, 2*config.ModelCacheTTL),
	}
	s.bind = s.bindBedrock
	return s
}

// NewServerWithBinder builds a Server with a custom model binder.
func NewServerWithBinder(bind BindFunc) *Server {
	return &Server{bind: bind}
}

func (s *Server) bindBedrock(ctx context.Context, model string, params nova.AgentModelParams) (nova.Requester, error) {
	var m *nova.Model
	if v, ok := s.models.Get(model); ok {
		m = v.(*nova.Model)
	} else {
		built, err := nova.New(ctx, model)
		if err != nil {
			return nil, errors.Wrapf(err, "build model %q", model)
		}
		s.models.SetDefault(model, built)
		m = built
	}

	am, err := m.AgentModel(params)
	if err != nil {
		return nil, errors.Wrap(err, "bind agent model")
	}
	return am, nil
}
