package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/lucid-vigil/winharden/pkg/cim"
	"github.com/lucid-vigil/winharden/pkg/procedures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusBag() *cim.PropertyBag {
	bag := cim.NewPropertyBag()
	bag.Set("AMServiceEnabled", cim.NewBool(true))
	bag.Set("AntivirusEnabled", cim.NewBool(true))
	bag.Set("AntivirusSignatureLastUpdated", cim.NewDateTime(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))
	bag.Set("IsTamperProtected", cim.NewBool(false))
	return bag
}

func TestFilterFields(t *testing.T) {
	out, err := filterFields(statusBag(), []string{"Antivirus*", "IsTamper?rotected"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AntivirusEnabled", "AntivirusSignatureLastUpdated", "IsTamperProtected"}, out.Keys())

	all, err := filterFields(statusBag(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Len())

	_, err = filterFields(statusBag(), []string{"[unclosed"})
	assert.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	bag, err := filterFields(statusBag(), []string{"AM*", "*Updated"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", bag))
	assert.JSONEq(t, `{"AMServiceEnabled":true,"AntivirusSignatureLastUpdated":"2024-01-15T10:30:00Z"}`, buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "yaml", []procedures.Result{{Procedure: "lockscreen_ctrl_alt_del", Category: procedures.CategoryLockScreen, Status: procedures.StatusApplied}}))
	assert.Contains(t, buf.String(), "procedure: lockscreen_ctrl_alt_del")
	assert.Contains(t, buf.String(), "status: applied")

	assert.Error(t, writeOutput(&buf, "xml", bag))
}

func TestRootCmd_List(t *testing.T) {
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", "--log-level", "error"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "country_ip_blocking")
	assert.Contains(t, out.String(), "lockscreen_ctrl_alt_del")
	assert.Contains(t, out.String(), "defender_preferences")
}

func TestRootCmd_ApplyDryRun(t *testing.T) {
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"apply", "--dry-run", "--log-level", "error", "-o", "json"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"status": "skipped"`)
}
