//go:build windows

package wmi

import (
	"context"
	"fmt"
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"github.com/lucid-vigil/winharden/pkg/cim"
)

// SWbemClient implements Client with the WbemScripting COM automation API.
type SWbemClient struct{}

// NewClient returns the platform Client.
func NewClient() Client {
	return &SWbemClient{}
}

// session holds an initialized COM apartment and a connected SWbemServices
// object. close must run on the same OS thread as connect.
type session struct {
	locator *ole.IUnknown
	wmi     *ole.IDispatch
	service *ole.IDispatch
}

func connect(namespace string) (*session, error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		// S_FALSE (already initialized) is OK
		oleErr, ok := err.(*ole.OleError)
		if !ok || oleErr.Code() != 0x00000001 {
			return nil, fmt.Errorf("CoInitializeEx: %w", err)
		}
	}

	s := &session{}
	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		ole.CoUninitialize()
		return nil, fmt.Errorf("create WbemLocator: %w", err)
	}
	s.locator = unknown

	s.wmi, err = unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("query IDispatch: %w", err)
	}

	serviceRaw, err := oleutil.CallMethod(s.wmi, "ConnectServer", ".", namespace)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("connect %s: %w", namespace, err)
	}
	s.service = serviceRaw.ToIDispatch()
	return s, nil
}

func (s *session) close() {
	if s.service != nil {
		s.service.Release()
	}
	if s.wmi != nil {
		s.wmi.Release()
	}
	if s.locator != nil {
		s.locator.Release()
	}
	ole.CoUninitialize()
}

// Query executes a WQL query and decodes every property of every row.
func (c *SWbemClient) Query(ctx context.Context, namespace, query string) ([]Row, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s, err := connect(namespace)
	if err != nil {
		return nil, err
	}
	defer s.close()

	resultRaw, err := oleutil.CallMethod(s.service, "ExecQuery", query)
	if err != nil {
		return nil, fmt.Errorf("ExecQuery: %w", err)
	}
	result := resultRaw.ToIDispatch()
	defer result.Release()

	var rows []Row
	err = oleutil.ForEach(result, func(item *ole.VARIANT) error {
		defer item.Clear()
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := readRow(item.ToIDispatch())
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return rows, err
	}
	return rows, nil
}

func readRow(obj *ole.IDispatch) (Row, error) {
	propsRaw, err := oleutil.GetProperty(obj, "Properties_")
	if err != nil {
		return nil, fmt.Errorf("get Properties_: %w", err)
	}
	props := propsRaw.ToIDispatch()
	defer props.Release()

	var row Row
	err = oleutil.ForEach(props, func(pv *ole.VARIANT) error {
		defer pv.Clear()
		prop := pv.ToIDispatch()

		nameRaw, err := oleutil.GetProperty(prop, "Name")
		if err != nil {
			return fmt.Errorf("get property name: %w", err)
		}
		name := nameRaw.ToString()
		nameRaw.Clear()

		typeRaw, err := oleutil.GetProperty(prop, "CIMType")
		if err != nil {
			return fmt.Errorf("get CIMType of %s: %w", name, err)
		}
		cimType := CIMType(typeRaw.Val)
		typeRaw.Clear()

		valRaw, err := oleutil.GetProperty(prop, "Value")
		if err != nil {
			return fmt.Errorf("get value of %s: %w", name, err)
		}
		row = append(row, Property{Name: name, Type: cimType, Value: decodeVariant(valRaw)})
		valRaw.Clear()
		return nil
	})
	return row, err
}

func decodeVariant(v *ole.VARIANT) interface{} {
	if v.VT&ole.VT_ARRAY != 0 {
		arr := v.ToArray()
		if arr == nil {
			return nil
		}
		return arr.ToValueArray()
	}
	switch v.VT {
	case ole.VT_NULL, ole.VT_EMPTY:
		return nil
	case ole.VT_BOOL:
		return v.Val&0xffff != 0
	case ole.VT_I4, ole.VT_INT:
		return int32(v.Val)
	case ole.VT_UI4, ole.VT_UINT:
		return uint32(v.Val)
	case ole.VT_BSTR:
		return v.ToString()
	}
	return v.Value()
}

// ExecMethod spawns the method's input-parameter instance, assigns every
// param and calls ExecMethod_ on the class object. A non-zero ReturnValue is
// reported as an error.
func (c *SWbemClient) ExecMethod(ctx context.Context, namespace, class, method string, params []Param) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := connect(namespace)
	if err != nil {
		return err
	}
	defer s.close()

	classRaw, err := oleutil.CallMethod(s.service, "Get", class)
	if err != nil {
		return fmt.Errorf("get class %s: %w", class, err)
	}
	classObj := classRaw.ToIDispatch()
	defer classObj.Release()

	methodsRaw, err := oleutil.GetProperty(classObj, "Methods_")
	if err != nil {
		return fmt.Errorf("get Methods_: %w", err)
	}
	methods := methodsRaw.ToIDispatch()
	defer methods.Release()

	methodRaw, err := oleutil.CallMethod(methods, "Item", method)
	if err != nil {
		return fmt.Errorf("method %s.%s: %w", class, method, err)
	}
	methodObj := methodRaw.ToIDispatch()
	defer methodObj.Release()

	inDefRaw, err := oleutil.GetProperty(methodObj, "InParameters")
	if err != nil {
		return fmt.Errorf("get InParameters: %w", err)
	}
	inDef := inDefRaw.ToIDispatch()
	if inDef == nil {
		return fmt.Errorf("method %s.%s takes no parameters", class, method)
	}
	defer inDef.Release()

	inRaw, err := oleutil.CallMethod(inDef, "SpawnInstance_")
	if err != nil {
		return fmt.Errorf("SpawnInstance_: %w", err)
	}
	in := inRaw.ToIDispatch()
	defer in.Release()

	for _, p := range params {
		if err := putParam(in, p); err != nil {
			return err
		}
	}

	outRaw, err := oleutil.CallMethod(classObj, "ExecMethod_", method, in)
	if err != nil {
		return fmt.Errorf("ExecMethod_ %s.%s: %w", class, method, err)
	}
	out := outRaw.ToIDispatch()
	if out == nil {
		return nil
	}
	defer out.Release()

	rvRaw, err := oleutil.GetProperty(out, "ReturnValue")
	if err != nil {
		return nil
	}
	defer rvRaw.Clear()
	if rv, ok := decodeVariant(rvRaw).(int32); ok && rv != 0 {
		return fmt.Errorf("%s.%s returned 0x%08X", class, method, uint32(rv))
	}
	return nil
}

func putParam(in *ole.IDispatch, p Param) error {
	propsRaw, err := oleutil.GetProperty(in, "Properties_")
	if err != nil {
		return fmt.Errorf("get Properties_: %w", err)
	}
	props := propsRaw.ToIDispatch()
	defer props.Release()

	propRaw, err := oleutil.CallMethod(props, "Item", p.Name)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", p.Name, err)
	}
	prop := propRaw.ToIDispatch()
	defer prop.Release()

	if p.Value.Kind() == cim.KindArray {
		return fmt.Errorf("parameter %s: heterogeneous arrays cannot be marshaled", p.Name)
	}
	val := p.Value.Interface()
	if p.Value.Kind() == cim.KindDateTime {
		t, _ := p.Value.AsTime()
		val = cim.FormatDMTF(t)
	}
	if _, err := oleutil.PutProperty(prop, "Value", val); err != nil {
		return fmt.Errorf("set parameter %s: %w", p.Name, err)
	}
	return nil
}
