package services

import (
	"os"
	"path/filepath"
	"testing"

	"checkdocs/pkg/models"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Commandes sans client · Consistency Checker</title>
<meta name="description" content="Les commandes doivent avoir un client.">
</head>
<body>
<h1 class="page-title" data-fr="Commandes sans client" data-en="Orders without customer">Commandes sans client</h1>
<table class="info-table">
<tr><th data-fr="Identifiant" data-en="Identifier">Identifiant</th><td>CHK-001</td></tr>
<tr><th data-fr="Script associé" data-en="Associated script">Script associé</th><td>check_orders.sql</td></tr>
<tr><th>Niveau</th><td><span class="level-pill level-ERROR">Erreur</span></td></tr>
</table>
<section class="content-section">
<h2 data-fr="Explications" data-en="Overview">Explications</h2>
<p data-fr="Les commandes doivent avoir un client." data-en="Orders must have a customer.">Les commandes doivent avoir un client.</p>
</section>
<section class="content-section">
<h2 data-fr="Résolution" data-en="Remediation">Résolution</h2>
<p data-fr="Rattacher un client.">Rattacher un client.</p>
</section>
</body>
</html>
`

type testCatalog struct {
	root      string
	checksDir string
	manifest  string
	ws        *Workspace
	store     *ManifestStore
	docs      *Documents
	engine    *Engine
}

func newTestCatalog(t *testing.T, opts ...EngineOption) *testCatalog {
	t.Helper()
	root := t.TempDir()
	checksDir := filepath.Join(root, "checks")
	require.NoError(t, os.MkdirAll(checksDir, 0o755))
	manifest := filepath.Join(root, "manifest.json")

	ws, err := OpenWorkspace(checksDir, manifest)
	require.NoError(t, err)

	store := NewManifestStore(manifest, nil)
	docs := NewDocuments(NetHTMLCodec{}, "Consistency Checker", nil)
	engine, err := NewEngine(ws, store, docs, nil, opts...).Grant()
	require.NoError(t, err)
	return &testCatalog{
		root:      root,
		checksDir: checksDir,
		manifest:  manifest,
		ws:        ws,
		store:     store,
		docs:      docs,
		engine:    engine,
	}
}

// ungranted returns an engine over the same catalog that never asked for access.
func (c *testCatalog) ungranted() *Engine {
	return NewEngine(c.ws, c.store, c.docs, nil)
}

func (c *testCatalog) writePage(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(c.checksDir, name), []byte(content), 0o644))
}

func (c *testCatalog) writeManifest(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(c.manifest, []byte(content), 0o644))
}

func (c *testCatalog) pageExists(name string) bool {
	_, err := os.Stat(filepath.Join(c.checksDir, name))
	return err == nil
}

func (c *testCatalog) entries() []models.CheckEntry {
	return c.store.Load().Entries
}
