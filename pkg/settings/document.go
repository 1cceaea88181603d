package settings

import (
	"gopkg.in/yaml.v2"
)

// Document is the raw, ordered content of a settings payload.
//
// Migrations operate on documents rather than on typed settings, so that keys
// unknown to this version survive every rewrite unchanged.
type Document struct {
	items yaml.MapSlice
}

// NewDocument wraps an ordered map
func NewDocument(items yaml.MapSlice) Document {
	return Document{items: items}
}

// ParseDocument reads a YAML payload. An empty payload yields an empty document.
func ParseDocument(data []byte) (Document, error) {
	var items yaml.MapSlice
	if err := yaml.Unmarshal(data, &items); err != nil {
		return Document{}, err
	}
	return Document{items: items}, nil
}

// Items returns a copy of the ordered items
func (d Document) Items() yaml.MapSlice {
	res := make(yaml.MapSlice, len(d.items))
	copy(res, d.items)
	return res
}

// Marshal the document to YAML
func (d Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d.items)
}

func (d Document) index(key string) int {
	for i, item := range d.items {
		if k, ok := item.Key.(string); ok && k == key {
			return i
		}
	}
	return -1
}

// Has tells if the key is present
func (d Document) Has(key string) bool {
	return d.index(key) >= 0
}

// Get the value of a key
func (d Document) Get(key string) (interface{}, bool) {
	i := d.index(key)
	if i < 0 {
		return nil, false
	}
	return d.items[i].Value, true
}

// GetString gets the value of a key as a string
func (d Document) GetString(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set returns a document with the key set: existing keys are updated in place,
// new keys are appended.
func (d Document) Set(key string, value interface{}) Document {
	items := d.Items()
	if i := d.index(key); i >= 0 {
		items[i].Value = value
		return Document{items: items}
	}
	return Document{items: append(items, yaml.MapItem{Key: key, Value: value})}
}

// SetDefault returns a document with the key set only if it is absent
func (d Document) SetDefault(key string, value interface{}) Document {
	if d.Has(key) {
		return d
	}
	return d.Set(key, value)
}
