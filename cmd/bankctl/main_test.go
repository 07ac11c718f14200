package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunDemo(t *testing.T) {
	svc, err := newService(false)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runDemo(context.Background(), &out, svc, "inv-1", "Acme Ltd", "APP-100", decimal.NewFromInt(500000), 0))

	dec := json.NewDecoder(&out)
	var steps []string
	var last map[string]interface{}
	for dec.More() {
		var step struct {
			Step   string          `json:"step"`
			Result json.RawMessage `json:"result"`
		}
		require.NoError(t, dec.Decode(&step))
		steps = append(steps, step.Step)
		if step.Step == "readiness" {
			require.NoError(t, json.Unmarshal(step.Result, &last))
		}
		if step.Step == "application-approved" {
			assert.Contains(t, string(step.Result), `"status": "released"`)
		}
		if step.Step == "documents" {
			assert.Contains(t, string(step.Result), "Escrow Release Certificate")
		}
	}

	assert.Equal(t, []string{"init", "kyc", "account", "escrow", "application-approved", "documents", "readiness"}, steps)
	assert.EqualValues(t, 60, last["readinessScore"])
}

func TestFXCommand(t *testing.T) {
	out, err := execute(t, "fx", "usd", "bdt", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, `"toCurrency": "BDT"`)
	assert.Contains(t, out, `"quotedAmount": "110500"`)

	_, err = execute(t, "fx", "USD", "BDT", "0")
	assert.Error(t, err)
}

func TestPartnersCommand(t *testing.T) {
	out, err := execute(t, "partners")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, out, "brac-bank")
}

func TestPartnersValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "partners.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"partners":[
		{"id":"brac-bank","name":"BRAC Bank","capabilities":["escrow","fx"]},
		{"id":"city-bank","name":"City Bank","capabilities":["fx"]}
	]}`), 0o600))

	out, err := execute(t, "partners", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "2 partners")
	assert.Regexp(t, `fx\s+2`, out)

	dup := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`{"partners":[{"id":"a"},{"id":"a"}]}`), 0o600))

	_, err = execute(t, "partners", "validate", dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}
