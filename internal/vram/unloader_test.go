package vram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOllama struct {
	calledWith string
	err        error
}

func (f *fakeOllama) Unload(ctx context.Context, model string) error {
	f.calledWith = model
	return f.err
}

func TestUnloadStripsProviderPrefixAndCallsClient(t *testing.T) {
	client := &fakeOllama{}
	u := New(client, nil)

	require.NoError(t, u.Unload("ollama:llama3"))
	assert.Equal(t, "llama3", client.calledWith)
}

func TestUnloadIgnoresNonOllamaModels(t *testing.T) {
	client := &fakeOllama{}
	u := New(client, nil)

	require.NoError(t, u.Unload("openai:gpt-4o"))
	assert.Empty(t, client.calledWith)
}

func TestUnloadPropagatesClientError(t *testing.T) {
	client := &fakeOllama{err: errors.New("boom")}
	u := New(client, nil)

	err := u.Unload("ollama:llama3")
	assert.Error(t, err)
}
