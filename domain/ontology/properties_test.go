package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{"", false},
		{"x", true},
		{false, false},
		{true, true},
		{float64(0), false},
		{float64(2), true},
		{map[string]any{}, true},
		{[]any{}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truthy(tt.in), "Truthy(%#v)", tt.in)
	}
}

func TestProperties_Accessors(t *testing.T) {
	p := Properties{
		"dataSource": "core-widget",
		"primaryKey": "",
		"color":      "#ff0000",
		"schema": map[string]any{
			"properties": map[string]any{
				"name":  map[string]any{"searchable": true},
				"email": map[string]any{"searchable": false},
				"age":   map[string]any{},
			},
			"required": []any{},
		},
		"indexes": map[string]any{
			"byEmail": map[string]any{"hashKey": "email"},
		},
	}

	_, ok := p.DataSource()
	assert.True(t, ok)
	_, ok = p.PrimaryKey()
	assert.False(t, ok, "empty primary key is missing")

	c, ok := p.Color()
	assert.True(t, ok)
	assert.Equal(t, "#ff0000", c)

	s, ok := p.Schema()
	assert.True(t, ok)
	assert.Equal(t, []string{"age", "email", "name"}, s.PropertyNames())
	assert.True(t, s.Searchable("name"))
	assert.False(t, s.Searchable("email"))
	assert.False(t, s.Searchable("missing"))

	req, ok := s.Required()
	assert.True(t, ok)
	assert.Empty(t, req)

	assert.True(t, p.HasIndexOn("email"))
	assert.False(t, p.HasIndexOn("name"))
}

func TestProperties_IndexesAsArray(t *testing.T) {
	p := Properties{"indexes": []any{
		map[string]any{"hashKey": "name"},
		"not-an-index",
	}}

	assert.Len(t, p.Indexes(), 1)
	assert.True(t, p.HasIndexOn("name"))
}

func TestProperties_NilIsMissingEverywhere(t *testing.T) {
	var p Properties

	_, ok := p.Schema()
	assert.False(t, ok)
	_, ok = p.DataSource()
	assert.False(t, ok)
	assert.Nil(t, p.Indexes())
	assert.Nil(t, p.Clone())
}

func TestSchema_RequiredAbsent(t *testing.T) {
	s := Schema{"properties": map[string]any{}}
	_, ok := s.Required()
	assert.False(t, ok)
}
