package tabular

import (
	"fmt"
	"strings"
)

// A TextSet is an immutable, insertion-ordered set of strings.
type TextSet struct {
	values []string
	index  map[string]struct{}
}

// NewTextSet returns the set of the given values, dropping duplicates and
// keeping the first-seen order.
func NewTextSet(values ...string) *TextSet {
	s := &TextSet{index: make(map[string]struct{}, len(values))}
	for _, v := range values {
		if _, dup := s.index[v]; !dup {
			s.index[v] = struct{}{}
			s.values = append(s.values, v)
		}
	}
	return s
}

// Len returns the number of distinct values.
func (s *TextSet) Len() int { return len(s.values) }

// Contains reports whether v is in the set.
func (s *TextSet) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Values returns the distinct values in first-seen order.
func (s *TextSet) Values() []string {
	values := make([]string, len(s.values))
	copy(values, s.values)
	return values
}

func (s *TextSet) String() string {
	return "{" + strings.Join(s.values, ", ") + "}"
}

// objectSource is the internal contract shared by the object column
// variants.
type objectSource interface {
	ObjectColumn
	objectAt(row int) any
}

// NewObjectColumn returns a dense object column over the given values. The
// type must be TEXT (string values) or TEXTSET (*TextSet values); nil
// encodes a missing value in both.
func NewObjectColumn(typ Type, values []any) (ObjectColumn, error) {
	if typ.Category() != CategoryObject {
		return nil, fmt.Errorf("tabular: %s is not an object type", typ)
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		switch typ.ID() {
		case TextID:
			if _, ok := v.(string); !ok {
				return nil, fmt.Errorf("tabular: %T is not a TEXT value at row %d", v, i)
			}
		case TextsetID:
			if _, ok := v.(*TextSet); !ok {
				return nil, fmt.Errorf("tabular: %T is not a TEXTSET value at row %d", v, i)
			}
		}
	}
	return &objectColumn{typ: typ, values: values}, nil
}

func objectCapabilities(typ Type) Capability {
	// Free-form text sorts lexicographically; text sets have no order.
	if typ.ID() == TextID {
		return ObjectReadable | Sortable
	}
	return ObjectReadable
}

type objectColumn struct {
	typ    Type
	values []any
}

func (c *objectColumn) Type() Type { return c.typ }

func (c *objectColumn) Len() int { return len(c.values) }

func (c *objectColumn) Capabilities() Capability { return objectCapabilities(c.typ) }

func (c *objectColumn) objectAt(row int) any { return c.values[row] }

func (c *objectColumn) FillObjects(dst []any, row int) {
	checkFillStart(row)
	if row < len(c.values) {
		copy(dst, c.values[row:])
	}
}

func (c *objectColumn) Map(mapping []int32, preferView bool) Column {
	return mapObject(c, mapping, preferView)
}

type mappedObjectColumn struct {
	typ        Type
	underlying objectSource
	mapping    []int32
}

func (c *mappedObjectColumn) Type() Type { return c.typ }

func (c *mappedObjectColumn) Len() int { return len(c.mapping) }

func (c *mappedObjectColumn) Capabilities() Capability { return objectCapabilities(c.typ) }

func (c *mappedObjectColumn) objectAt(row int) any {
	if m := c.mapping[row]; m >= 0 && int(m) < c.underlying.Len() {
		return c.underlying.objectAt(int(m))
	}
	return nil
}

func (c *mappedObjectColumn) FillObjects(dst []any, row int) {
	checkFillStart(row)
	n := len(c.mapping) - row
	if n > len(dst) {
		n = len(dst)
	}
	for j := 0; j < n; j++ {
		dst[j] = c.objectAt(row + j)
	}
}

func (c *mappedObjectColumn) Map(mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedObjectColumn{typ: c.typ, underlying: c.underlying, mapping: ComposeMappings(c.mapping, mapping)}
	}
	return materializeObject(c, mapping)
}

func mapObject(c objectSource, mapping []int32, preferView bool) Column {
	if preferView {
		return &mappedObjectColumn{typ: c.Type(), underlying: c, mapping: mapping}
	}
	return materializeObject(c, mapping)
}

func materializeObject(c objectSource, mapping []int32) Column {
	values := make([]any, len(mapping))
	size := c.Len()
	for i, m := range mapping {
		if m >= 0 && int(m) < size {
			values[i] = c.objectAt(int(m))
		}
	}
	return &objectColumn{typ: c.Type(), values: values}
}
