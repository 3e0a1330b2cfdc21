package ontology

import "sort"

// Properties is the loosely typed configuration document attached to a node. Its
// shape is not enforced on write, so every read goes through an accessor that
// reports presence explicitly.
//
// Presence follows the truthiness of the stored JSON: absent keys, null, "", 0 and
// false are missing; objects and arrays are present even when empty.
type Properties map[string]any

// Clone copies the top level of the map.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Get returns the raw value under key when it is present.
func (p Properties) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	if !ok || !Truthy(v) {
		return nil, false
	}
	return v, true
}

// String returns the value under key when it is a non-empty string.
func (p Properties) String(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Schema returns properties.schema.
func (p Properties) Schema() (Schema, bool) {
	v, ok := p.Get("schema")
	if !ok {
		return nil, false
	}
	m, ok := asObject(v)
	if !ok {
		// A truthy non-object still counts as a declared schema, it just has no
		// readable members.
		return Schema{}, true
	}
	return Schema(m), true
}

// DataSource returns properties.dataSource.
func (p Properties) DataSource() (any, bool) {
	return p.Get("dataSource")
}

// PrimaryKey returns properties.primaryKey.
func (p Properties) PrimaryKey() (any, bool) {
	return p.Get("primaryKey")
}

// Color returns properties.color.
func (p Properties) Color() (string, bool) {
	return p.String("color")
}

// Icon returns properties.icon.
func (p Properties) Icon() (string, bool) {
	return p.String("icon")
}

// Indexes returns the declared index objects. properties.indexes may be stored as
// an object keyed by index name or as an array; both yield their values. Non-object
// members are skipped.
func (p Properties) Indexes() []map[string]any {
	v, ok := p.Get("indexes")
	if !ok {
		return nil
	}
	var out []map[string]any
	if obj, ok := asObject(v); ok {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if m, ok := asObject(obj[k]); ok {
				out = append(out, m)
			}
		}
		return out
	}
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if m, ok := asObject(item); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// HasIndexOn reports whether some declared index uses property as its hash key.
func (p Properties) HasIndexOn(property string) bool {
	for _, idx := range p.Indexes() {
		if hk, ok := idx["hashKey"].(string); ok && hk == property {
			return true
		}
	}
	return false
}

// Schema is properties.schema.
type Schema map[string]any

// Properties returns schema.properties as a map of property name to definition.
func (s Schema) Properties() (map[string]any, bool) {
	v, ok := Properties(s).Get("properties")
	if !ok {
		return nil, false
	}
	return asObject(v)
}

// PropertyNames returns the declared property names in sorted order.
func (s Schema) PropertyNames() []string {
	props, ok := s.Properties()
	if !ok {
		return nil
	}
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Searchable reports whether the named schema property is marked searchable.
func (s Schema) Searchable(name string) bool {
	props, ok := s.Properties()
	if !ok {
		return false
	}
	def, ok := asObject(props[name])
	if !ok {
		return false
	}
	return Truthy(def["searchable"])
}

// Required returns schema.required when it is declared as a list.
func (s Schema) Required() ([]any, bool) {
	if s == nil {
		return nil, false
	}
	switch t := s["required"].(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = v
		}
		return out, true
	}
	return nil, false
}

// Truthy mirrors the truthiness of decoded JSON/DynamoDB values.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	}
	return true
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Properties:
		return map[string]any(t), true
	case Schema:
		return map[string]any(t), true
	}
	return nil, false
}
