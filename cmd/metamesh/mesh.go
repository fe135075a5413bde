package main

import (
	"github.com/metamesh-ai/metamesh"
	"github.com/metamesh-ai/metamesh/collection"
	"github.com/metamesh-ai/metamesh/model"
)

// buildMesh loads a collection into a fresh Metamesh. With mock=true every
// provider module resolves to a MockModel, so assess/run work offline.
func buildMesh(dir string, mock bool) (*metamesh.Metamesh, error) {
	m := metamesh.New(func(o *metamesh.Options) {
		o.Logger = newLogger()
		o.WorkspaceRoot = dir
		if mock {
			o.Providers = mockProviders()
		}
	})

	if _, err := m.LoadCollection(dir); err != nil {
		return nil, err
	}
	return m, nil
}

func mockProviders() *model.Registry {
	factory := func(ref collection.ProviderRef) (model.Model, error) {
		return model.NewMockModel(ref.Config.Model, "mock"), nil
	}
	reg := model.NewRegistry()
	reg.Register(model.ModuleAnthropic, factory)
	reg.Register(model.ModuleOpenAI, factory)
	return reg
}
