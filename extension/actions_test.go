package extension

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paperlab/querybot/service/ollama"
)

func TestActions_RegisterIndexesTypes(t *testing.T) {
	actions := NewActions()
	actions.Register(ollama.New())

	assert.NotNil(t, actions.Lookup("ml/ollama"))
	registry := actions.Types()

	// input/output types are addressable by their package alias
	embedInput := registry.Lookup("ollama.EmbedInput")
	if assert.NotNil(t, embedInput) {
		assert.Equal(t, reflect.TypeOf(ollama.EmbedInput{}), embedInput.Type)
	}
	assert.NotNil(t, registry.Lookup("ollama.GenerateOutput"))
	assert.Nil(t, registry.Lookup("ollama.NoSuchType"))
}

func TestTypes_LookupModifiers(t *testing.T) {
	actions := NewActions()
	actions.Register(ollama.New())
	registry := actions.Types()

	sliced := registry.Lookup("[]ollama.EmbedInput")
	if assert.NotNil(t, sliced) {
		assert.Equal(t, reflect.Slice, sliced.Type.Kind())
	}
	mapped := registry.Lookup("map[string]ollama.EmbedInput")
	if assert.NotNil(t, mapped) {
		assert.Equal(t, reflect.Map, mapped.Type.Kind())
	}
}
