package wmi

import (
	"testing"
	"time"

	"github.com/lucid-vigil/winharden/pkg/cim"
	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPropertyBag(t *testing.T) {
	row := Row{
		{Name: "AMServiceEnabled", Type: CIMTypeBoolean, Value: true},
		{Name: "AntivirusSignatureLastUpdated", Type: CIMTypeDateTime, Value: "20240115103000.000000+000"},
		{Name: "AMProductVersion", Type: CIMTypeString, Value: "4.18.24010.12"},
		{Name: "FullScanAge", Type: CIMTypeUint32, Value: int32(-1)},
		{Name: "QuickScanSignatureVersion", Type: CIMTypeUint64, Value: "18446744073709551615"},
		{Name: "ComputerState", Type: CIMTypeUint32, Value: nil},
	}

	bag, err := ToPropertyBag(row)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"AMServiceEnabled",
		"AntivirusSignatureLastUpdated",
		"AMProductVersion",
		"FullScanAge",
		"QuickScanSignatureVersion",
		"ComputerState",
	}, bag.Keys())

	updated, ok := bag.Time("AntivirusSignatureLastUpdated")
	require.True(t, ok)
	assert.True(t, updated.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))

	age, _ := bag.Get("FullScanAge")
	assert.Equal(t, cim.KindUint32, age.Kind())
	assert.Equal(t, uint32(4294967295), age.Interface())

	sig, _ := bag.Get("QuickScanSignatureVersion")
	assert.Equal(t, uint64(18446744073709551615), sig.Interface())

	state, _ := bag.Get("ComputerState")
	assert.True(t, state.IsNull())
}

func TestToPropertyBag_MalformedDate(t *testing.T) {
	row := Row{
		{Name: "AMServiceEnabled", Type: CIMTypeBoolean, Value: true},
		{Name: "AntivirusSignatureLastUpdated", Type: CIMTypeDateTime, Value: "not-a-date"},
		{Name: "AntispywareSignatureLastUpdated", Type: CIMTypeDateTime, Value: "20240115103000.000000+000"},
	}

	bag, err := ToPropertyBag(row)
	require.Error(t, err)
	assert.ErrorIs(t, err, herrors.ErrFormat)
	assert.Contains(t, err.Error(), "not-a-date")

	// The other fields convert exactly as they would without the bad one.
	assert.Equal(t, []string{"AMServiceEnabled", "AntispywareSignatureLastUpdated"}, bag.Keys())
	enabled, ok := bag.Bool("AMServiceEnabled")
	assert.True(t, ok)
	assert.True(t, enabled)
	ts, ok := bag.Time("AntispywareSignatureLastUpdated")
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())
}

func TestToPropertyBag_Arrays(t *testing.T) {
	row := Row{
		{Name: "ExclusionPath", Type: CIMTypeString, Value: []interface{}{"C:\\a", "C:\\b"}},
		{Name: "ThreatIDDefaultAction_Actions", Type: CIMTypeUint8, Value: []interface{}{int8(2), int8(6)}},
	}

	bag, err := ToPropertyBag(row)
	require.NoError(t, err)

	paths, _ := bag.Get("ExclusionPath")
	got, ok := paths.AsStringArray()
	require.True(t, ok)
	assert.Equal(t, []string{"C:\\a", "C:\\b"}, got)

	actions, _ := bag.Get("ThreatIDDefaultAction_Actions")
	arr, ok := actions.AsArray()
	require.True(t, ok)
	require.Len(t, arr, 2)
	assert.Equal(t, cim.KindByte, arr[0].Kind())
}

func TestToPropertyBag_UnsupportedNative(t *testing.T) {
	row := Row{{Name: "Embedded", Type: CIMTypeObject, Value: struct{}{}}}

	_, err := ToPropertyBag(row)
	assert.ErrorIs(t, err, herrors.ErrFormat)
}
