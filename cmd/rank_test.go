package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkloop-ai/procure-cli/internal/supplier"
)

const harvestJSON = `{
  "suppliers": [
    {"company_name": "Delhi Metals", "mobile_number": "98100 00001", "location": "Delhi", "rating": "4.1"},
    {"company_name": "Mumbai Wires", "mobile_number": "+91 98200 00002", "email": "mw@example.com", "location": "Mumbai", "rating": 4.5},
    {"company_name": "Mumbai Wires", "mobile_number": "098200 00002", "location": "Mumbai"},
    {"company_name": "", "mobile_number": "9999999999"}
  ],
  "procurement_requirements": {
    "product_types": "copper wire",
    "quantity": "2 tonnes",
    "delivery_timeline": "10 days",
    "procurement_source_location": "Mumbai",
    "delivery_location": "Nagpur"
  }
}`

func TestRankSnapshot(t *testing.T) {
	testConfig(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "harvest.json")
	require.NoError(t, os.WriteFile(in, []byte(harvestJSON), 0o644))
	xlsxPath := filepath.Join(dir, "ranked.xlsx")
	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

	path, ranked, err := rankSnapshot(in, "", dir, xlsxPath, now)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "Mumbai Wires", ranked[0].CompanyName)
	assert.Equal(t, "+919820000002", ranked[0].Phone)
	assert.Equal(t, "Delhi Metals", ranked[1].CompanyName)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)

	assert.Equal(t, "suppliers_20260504_093000.json", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap supplier.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 2, snap.TotalSuppliers)
	require.NotNil(t, snap.Requirements)
	assert.Equal(t, "copper wire", snap.Requirements.ProductSpec)

	assert.FileExists(t, xlsxPath)
}

func TestRankSnapshot_RespectsMaxResults(t *testing.T) {
	c := testConfig(t)
	c.Ranking.MaxResults = 1
	dir := t.TempDir()
	in := filepath.Join(dir, "harvest.json")
	require.NoError(t, os.WriteFile(in, []byte(harvestJSON), 0o644))

	_, ranked, err := rankSnapshot(in, "", dir, "", time.Now())
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
}

func TestRankSnapshot_MissingSuppliers(t *testing.T) {
	testConfig(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"items": []}`), 0o644))

	_, _, err := rankSnapshot(in, "", dir, "", time.Now())
	assert.Error(t, err)
}
