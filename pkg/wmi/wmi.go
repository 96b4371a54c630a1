// Package wmi talks to the local management subsystem: it runs WQL queries,
// converts the returned rows into property bags and invokes class methods.
package wmi

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lucid-vigil/winharden/pkg/cim"
	herrors "github.com/lucid-vigil/winharden/pkg/errors"
)

// CIMType is the wbemCimtype code reported for a property.
type CIMType int32

const (
	CIMTypeSint16    CIMType = 2
	CIMTypeSint32    CIMType = 3
	CIMTypeReal32    CIMType = 4
	CIMTypeReal64    CIMType = 5
	CIMTypeString    CIMType = 8
	CIMTypeBoolean   CIMType = 11
	CIMTypeObject    CIMType = 13
	CIMTypeSint8     CIMType = 16
	CIMTypeUint8     CIMType = 17
	CIMTypeUint16    CIMType = 18
	CIMTypeUint32    CIMType = 19
	CIMTypeSint64    CIMType = 20
	CIMTypeUint64    CIMType = 21
	CIMTypeDateTime  CIMType = 101
	CIMTypeReference CIMType = 102
	CIMTypeChar16    CIMType = 103
)

// Property is one named value of a query result as decoded from the wire.
type Property struct {
	Name  string
	Type  CIMType
	Value interface{}
}

// Row is a single query result in property order.
type Row []Property

// Param is a named method input parameter.
type Param struct {
	Name  string
	Value cim.Value
}

// Client is the management-subsystem capability the rest of the tool uses.
type Client interface {
	// Query runs a WQL query in namespace and returns every matching row.
	Query(ctx context.Context, namespace, query string) ([]Row, error)
	// ExecMethod invokes a static method of class with the given input
	// parameters.
	ExecMethod(ctx context.Context, namespace, class, method string, params []Param) error
}

// ToPropertyBag converts a row into a PropertyBag. DateTime-typed strings are
// parsed as DMTF timestamps and 64-bit integers delivered as strings are
// parsed into numbers. A property that cannot be converted is left out of the
// bag; the first such failure is returned as a FormatError naming the raw
// value, alongside the bag holding every other property.
func ToPropertyBag(row Row) (*cim.PropertyBag, error) {
	bag := cim.NewPropertyBag()
	var firstErr error
	for _, p := range row {
		v, err := convert(p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		bag.Set(p.Name, v)
	}
	return bag, firstErr
}

func convert(p Property) (cim.Value, error) {
	switch raw := p.Value.(type) {
	case string:
		if v, ok, err := fromString(p.Type, raw); ok {
			if err != nil {
				return cim.Null(), herrors.NewFormatError("wmi.ToPropertyBag", raw, fmt.Errorf("property %s: %w", p.Name, err))
			}
			return v, nil
		}
	case []interface{}:
		vs := make([]cim.Value, 0, len(raw))
		strs := make([]string, 0, len(raw))
		allStrings := true
		for _, e := range raw {
			ev, err := convert(Property{Name: p.Name, Type: p.Type, Value: e})
			if err != nil {
				return cim.Null(), err
			}
			if s, ok := ev.AsString(); ok {
				strs = append(strs, s)
			} else {
				allStrings = false
			}
			vs = append(vs, ev)
		}
		if allStrings && p.Type == CIMTypeString {
			return cim.NewStringArray(strs), nil
		}
		return cim.NewArray(vs), nil
	case int32:
		// Unsigned CIM integers arrive in signed variants.
		switch p.Type {
		case CIMTypeUint32:
			return cim.NewUint32(uint32(raw)), nil
		case CIMTypeUint16:
			return cim.NewUint16(uint16(raw)), nil
		case CIMTypeUint8:
			return cim.NewByte(uint8(raw)), nil
		}
	case int16:
		if p.Type == CIMTypeUint16 {
			return cim.NewUint16(uint16(raw)), nil
		}
	case int8:
		if p.Type == CIMTypeUint8 {
			return cim.NewByte(uint8(raw)), nil
		}
	}

	v, err := cim.FromGo(p.Value)
	if err != nil {
		return cim.Null(), herrors.NewFormatError("wmi.ToPropertyBag", fmt.Sprint(p.Value), fmt.Errorf("property %s: %w", p.Name, err))
	}
	return v, nil
}

// fromString handles CIM types whose values are transported as strings.
// ok is false when the string should be kept verbatim.
func fromString(t CIMType, raw string) (v cim.Value, ok bool, err error) {
	switch t {
	case CIMTypeDateTime:
		ts, err := cim.ParseDMTF(raw)
		return cim.NewDateTime(ts), true, err
	case CIMTypeSint64:
		n, err := strconv.ParseInt(raw, 10, 64)
		return cim.NewInt64(n), true, err
	case CIMTypeUint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		return cim.NewUint64(n), true, err
	}
	return cim.Null(), false, nil
}
