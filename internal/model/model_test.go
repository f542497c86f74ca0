package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldOptions_IsEmpty(t *testing.T) {
	assert.True(t, FieldOptions{}.IsEmpty())

	b := true
	assert.False(t, FieldOptions{Async: &b}.IsEmpty())
	assert.False(t, FieldOptions{Extra: map[string]Literal{"custom": {Raw: "1", Kind: "number"}}}.IsEmpty())
}

func TestSymbolHandle_ComparableAsMapKey(t *testing.T) {
	a := SymbolHandle{Kind: KindModel, ImportPath: "my-app/models/user"}
	b := SymbolHandle{Kind: KindModel, ImportPath: "my-app/models/user"}
	c := SymbolHandle{Kind: KindMixin, ImportPath: "my-app/models/user"}

	seen := map[SymbolHandle]bool{a: true}
	assert.True(t, seen[b], "two handles with the same kind and import path must be the same map key")
	assert.False(t, seen[c], "a different kind must be a different map key even with the same import path")
}
