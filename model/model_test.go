package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamesh-ai/metamesh/collection"
	"github.com/metamesh-ai/metamesh/core"
)

func collect(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()
	var responses []Response
	for r := range respCh {
		responses = append(responses, r)
	}
	return responses, <-errCh
}

func TestMockModelCannedResponse(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddResponse("hello", "hi there")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserContent("hello")},
	})
	responses, err := collect(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)

	final := responses[0]
	assert.False(t, final.Partial)
	assert.Equal(t, "hi there", final.Content.Text())
	assert.Equal(t, "stop", final.FinishReason)
}

func TestMockModelDefaultResponse(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserContent("anything")},
	})
	responses, err := collect(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "Mock response to: anything", responses[0].Content.Text())
}

func TestMockModelScriptTakesPrecedence(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddResponse("hello", "from map")
	m.Script("first", "second")

	for _, want := range []string{"first", "second", "from map"} {
		respCh, errCh := m.Generate(context.Background(), Request{
			Contents: []core.Content{core.NewUserContent("hello")},
		})
		responses, err := collect(t, respCh, errCh)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, want, responses[0].Content.Text())
	}
	assert.Equal(t, 3, m.Calls())
}

func TestMockModelStreaming(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddResponse("hi", "abc")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserContent("hi")},
		Stream:   true,
	})
	responses, err := collect(t, respCh, errCh)
	require.NoError(t, err)
	// One partial per rune plus the final response.
	require.Len(t, responses, 4)
	for _, r := range responses[:3] {
		assert.True(t, r.Partial)
	}
	final := responses[3]
	assert.False(t, final.Partial)
	assert.Equal(t, "abc", final.Content.Text())
}

func TestMockModelNoContents(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := collect(t, respCh, errCh)
	assert.Empty(t, responses)
	assert.Error(t, err)
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	mock := NewMockModel("resolved", "mock")
	reg.Register("provider-mock", func(ref collection.ProviderRef) (Model, error) {
		assert.Equal(t, "some-model", ref.Config.Model)
		return mock, nil
	})

	m, err := reg.Resolve(collection.ProviderRef{
		Module: "provider-mock",
		Config: collection.ProviderConfig{Model: "some-model"},
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", m.Info().Name)
}

func TestRegistryUnknownModule(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ModuleAnthropic, func(collection.ProviderRef) (Model, error) {
		return NewMockModel("claude", "anthropic"), nil
	})

	_, err := reg.Resolve(collection.ProviderRef{Module: "provider-mistral"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider module")
	assert.Contains(t, err.Error(), "provider-anthropic")
}

func TestRegistryFactoryError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("missing api key")
	reg.Register(ModuleOpenAI, func(collection.ProviderRef) (Model, error) {
		return nil, boom
	})

	_, err := reg.Resolve(collection.ProviderRef{Module: ModuleOpenAI})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRegistryModulesSorted(t *testing.T) {
	reg := NewRegistry()
	nop := func(collection.ProviderRef) (Model, error) { return NewMockModel("m", "mock"), nil }
	reg.Register(ModuleOpenAI, nop)
	reg.Register(ModuleAnthropic, nop)

	assert.Equal(t, []string{ModuleAnthropic, ModuleOpenAI}, reg.Modules())
}
