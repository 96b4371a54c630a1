package cim

import (
	"bytes"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// PropertyBag is an ordered mapping from property name to Value. Keys keep
// the order in which they were first set.
type PropertyBag struct {
	keys   []string
	values map[string]Value
}

// NewPropertyBag creates an empty PropertyBag.
func NewPropertyBag() *PropertyBag {
	return &PropertyBag{values: make(map[string]Value)}
}

// Set stores v under name. Overwriting keeps the original position.
func (pb *PropertyBag) Set(name string, v Value) {
	if _, ok := pb.values[name]; !ok {
		pb.keys = append(pb.keys, name)
	}
	pb.values[name] = v
}

func (pb *PropertyBag) Get(name string) (Value, bool) {
	v, ok := pb.values[name]
	return v, ok
}

func (pb *PropertyBag) Len() int { return len(pb.keys) }

// Keys returns a copy of the property names in order.
func (pb *PropertyBag) Keys() []string {
	return append([]string(nil), pb.keys...)
}

// Range calls fn for each property in order until fn returns false.
func (pb *PropertyBag) Range(fn func(name string, v Value) bool) {
	for _, k := range pb.keys {
		if !fn(k, pb.values[k]) {
			return
		}
	}
}

// Filter returns a new bag holding only the properties whose names match.
func (pb *PropertyBag) Filter(match func(name string) bool) *PropertyBag {
	out := NewPropertyBag()
	pb.Range(func(name string, v Value) bool {
		if match(name) {
			out.Set(name, v)
		}
		return true
	})
	return out
}

func (pb *PropertyBag) Bool(name string) (bool, bool) {
	v, ok := pb.values[name]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

func (pb *PropertyBag) String(name string) (string, bool) {
	v, ok := pb.values[name]
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (pb *PropertyBag) Time(name string) (time.Time, bool) {
	v, ok := pb.values[name]
	if !ok {
		return time.Time{}, false
	}
	return v.AsTime()
}

// MarshalJSON writes the bag as a JSON object in key order.
func (pb *PropertyBag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range pb.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(pb.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML emits a mapping node so key order survives encoding.
func (pb *PropertyBag) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range pb.keys {
		var val yaml.Node
		if err := val.Encode(pb.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}
