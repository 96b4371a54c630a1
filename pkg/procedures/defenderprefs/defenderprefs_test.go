package defenderprefs

import (
	"context"
	"errors"
	"testing"

	"github.com/lucid-vigil/winharden/pkg/cim"
	"github.com/lucid-vigil/winharden/pkg/config"
	"github.com/lucid-vigil/winharden/pkg/defender"
	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/testutil"
	"github.com/lucid-vigil/winharden/pkg/wmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Apply(ctx context.Context, prefs []defender.Preference) error {
	return m.Called(ctx, prefs).Error(0)
}

type mockStatus struct {
	mock.Mock
}

func (m *mockStatus) GetStatus(ctx context.Context) (*cim.PropertyBag, error) {
	args := m.Called(ctx)
	bag, _ := args.Get(0).(*cim.PropertyBag)
	return bag, args.Error(1)
}

func TestConvert(t *testing.T) {
	prefs, err := Convert([]config.PreferenceConfig{
		{Name: "EnableNetworkProtection", Type: "byte", Value: 1},
		{Name: "SignatureUpdateInterval", Type: "uint16", Value: "3"},
		{Name: "DisableRestorePoint", Type: "bool", Value: false},
		{Name: "ExclusionProcess", Type: "string[]", Value: []interface{}{"a.exe", "b.exe"}},
	})
	require.NoError(t, err)
	require.Len(t, prefs, 4)

	assert.True(t, prefs[0].Value.Equal(cim.NewByte(1)))
	assert.True(t, prefs[1].Value.Equal(cim.NewUint16(3)))
	assert.True(t, prefs[2].Value.Equal(cim.NewBool(false)))
	assert.True(t, prefs[3].Value.Equal(cim.NewStringArray([]string{"a.exe", "b.exe"})))

	_, err = Convert([]config.PreferenceConfig{{Name: "X", Type: "decimal", Value: 1}})
	assert.ErrorIs(t, err, herrors.ErrInvalidArgument)

	_, err = Convert([]config.PreferenceConfig{{Name: "X", Type: "byte", Value: "many"}})
	assert.ErrorIs(t, err, herrors.ErrInvalidArgument)
}

func TestApply(t *testing.T) {
	writer := new(mockWriter)
	writer.On("Apply", mock.Anything, []defender.Preference{
		{Name: "PUAProtection", Value: cim.NewByte(1)},
		{Name: "CloudExtendedTimeout", Value: cim.NewInt32(50)},
	}).Return(nil).Once()

	status := new(mockStatus)
	bag := cim.NewPropertyBag()
	bag.Set("IsTamperProtected", cim.NewBool(true))
	status.On("GetStatus", mock.Anything).Return(bag, nil)

	logs, logger := testutil.NewLogCapture()
	p := New(writer, status, []config.PreferenceConfig{
		{Name: "PUAProtection", Type: "byte", Value: 1},
		{Name: "CloudExtendedTimeout", Type: "int32", Value: 50},
	}, logger)

	require.NoError(t, p.Apply(context.Background()))
	writer.AssertExpectations(t)

	warnings := logs.Level("warn")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "Tamper protection")
}

func TestApply_StatusUnavailable(t *testing.T) {
	writer := new(mockWriter)
	writer.On("Apply", mock.Anything, mock.Anything).Return(nil)

	status := new(mockStatus)
	status.On("GetStatus", mock.Anything).Return(nil, errors.New("query failed"))

	_, logger := testutil.NewLogCapture()
	p := New(writer, status, []config.PreferenceConfig{{Name: "MAPSReporting", Type: "byte", Value: 2}}, logger)
	require.NoError(t, p.Apply(context.Background()))
	writer.AssertNumberOfCalls(t, "Apply", 1)
}

func TestApply_Empty(t *testing.T) {
	writer := new(mockWriter)
	_, logger := testutil.NewLogCapture()

	require.NoError(t, New(writer, nil, nil, logger).Apply(context.Background()))
	writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestApply_ThroughPreferenceWriter(t *testing.T) {
	client := new(testutil.MockWMIClient)
	client.On("ExecMethod", mock.Anything, defender.Namespace, defender.PreferenceClass, "Set",
		[]wmi.Param{{Name: "PUAProtection", Value: cim.NewByte(1)}}).Return(nil).Once()

	_, logger := testutil.NewLogCapture()
	writer := defender.NewPreferenceWriter(client, logger)
	p := New(writer, nil, []config.PreferenceConfig{
		{Name: "PUAProtection", Type: "byte", Value: 1},
		{Name: "SignatureFallbackOrder", Type: "uint32", Value: 7},
		{Name: "CloudBlockLevel", Type: "byte", Value: 2},
	}, logger)

	err := p.Apply(context.Background())
	assert.ErrorIs(t, err, herrors.ErrUnsupportedType)
	client.AssertNumberOfCalls(t, "ExecMethod", 1)
	client.AssertExpectations(t)
}
