package dto

import (
	"bytes"
	"encoding/json"
)

// Record is an ordered key/value projection for ad hoc response shapes.
// Keys keep insertion order, including through Only/Except/Merge, so JSON
// output is stable.
type Record struct {
	keys   []string
	values map[string]interface{}
}

func NewRecord() *Record {
	return &Record{values: make(map[string]interface{})}
}

func (r *Record) Set(key string, value interface{}) *Record {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

func (r *Record) Get(key string) (interface{}, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Record) GetString(key string) (string, bool) {
	if v, ok := r.values[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

func (r *Record) GetInt(key string) (int, bool) {
	if v, ok := r.values[key]; ok {
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			return int(n), true
		}
	}
	return 0, false
}

func (r *Record) GetBool(key string) (bool, bool) {
	if v, ok := r.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

func (r *Record) Has(key string) bool {
	v, ok := r.values[key]
	return ok && v != nil
}

func (r *Record) Remove(key string) *Record {
	if _, ok := r.values[key]; !ok {
		return r
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return r
}

func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int {
	return len(r.keys)
}

func (r *Record) IsEmpty() bool {
	return len(r.keys) == 0
}

// Only returns a new Record containing just the given keys, in the order they
// exist in the receiver.
func (r *Record) Only(keys ...string) *Record {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	out := NewRecord()
	for _, k := range r.keys {
		if wanted[k] {
			out.Set(k, r.values[k])
		}
	}
	return out
}

// Except returns a new Record without the given keys.
func (r *Record) Except(keys ...string) *Record {
	excluded := make(map[string]bool, len(keys))
	for _, k := range keys {
		excluded[k] = true
	}
	out := NewRecord()
	for _, k := range r.keys {
		if !excluded[k] {
			out.Set(k, r.values[k])
		}
	}
	return out
}

// Merge copies the other record's entries into the receiver. Existing keys
// are overwritten in place; new keys append.
func (r *Record) Merge(other *Record) *Record {
	if other == nil {
		return r
	}
	for _, k := range other.keys {
		r.Set(k, other.values[k])
	}
	return r
}

func (r *Record) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
