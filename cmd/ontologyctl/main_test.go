package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = `
nodes:
  - id: customer
    name: Customer
    type: object
    domain: sales
    x: 100
    y: 50
  - id: orders
    name: Orders
    type: data-product
    domain: sales
  - id: ledger
    name: Ledger
    type: object
    domain: finance
edges:
  - id: customer-to-orders
    source: customer
    target: orders
    relation: places
collections:
  action:
    - id: refund
      name: Refund
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--seed", path}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNodes_Filtered(t *testing.T) {
	out, err := run(t, "nodes", "--filter", "domain:sales")
	require.NoError(t, err)

	var view struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Edges []struct {
			ID string `json:"id"`
		} `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Nodes, 2)
	assert.Equal(t, "customer", view.Nodes[0].ID)
	assert.Equal(t, "orders", view.Nodes[1].ID)
	assert.Len(t, view.Edges, 1)
}

func TestNodes_BadFilter(t *testing.T) {
	_, err := run(t, "nodes", "--filter", "sales")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property:value")
}

func TestHealth(t *testing.T) {
	out, err := run(t, "health")
	require.NoError(t, err)

	var report struct {
		Score         int      `json:"score"`
		Status        string   `json:"status"`
		OrphanedNodes []string `json:"orphanedNodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"ledger"}, report.OrphanedNodes)
	// One orphan plus a missing-properties issue per node.
	assert.Equal(t, 75, report.Score)
	assert.Equal(t, "warning", report.Status)

	_, err = run(t, "health", "--fail-under", "100")
	require.ErrorIs(t, err, errBelowThreshold)
}

func TestLayout_PlacesUnpositionedNodes(t *testing.T) {
	out, err := run(t, "layout", "--direction", "LR")
	require.NoError(t, err)

	var res struct {
		Direction string `json:"direction"`
		Placed    int    `json:"placed"`
		Nodes     []struct {
			ID string  `json:"id"`
			X  float64 `json:"x"`
			Y  float64 `json:"y"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "LR", res.Direction)
	assert.Equal(t, 2, res.Placed)
	require.Len(t, res.Nodes, 3)
	assert.Equal(t, 100.0, res.Nodes[0].X)
	assert.Equal(t, 50.0, res.Nodes[0].Y)
}

func TestCountsAndTables(t *testing.T) {
	out, err := run(t, "counts")
	require.NoError(t, err)
	assert.Contains(t, out, `"collection": "node"`)
	assert.Contains(t, out, `"count": 3`)

	out, err = run(t, "tables", "data-products")
	require.NoError(t, err)
	var table struct {
		View string           `json:"view"`
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "orders", table.Rows[0]["id"])

	out, err = run(t, "tables", "actions")
	require.NoError(t, err)
	assert.Contains(t, out, "refund")

	_, err = run(t, "tables")
	require.Error(t, err)
}
