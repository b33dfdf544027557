package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmptyDocument(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "tenants.json"))
	doc, err := r.Load()
	require.NoError(t, err)
	assert.NotNil(t, doc.Tenants)
	assert.Empty(t, doc.Tenants)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "tenants.json"))
	want := Document{Tenants: map[string]Tenant{
		"acme": {
			Active:       true,
			BusinessName: "Acme Corp",
			BusinessType: "Manufacturing",
			OwnerEmail:   "owner@acme.test",
		},
	}}
	require.NoError(t, r.Save(want))

	doc, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Tenants, doc.Tenants)
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := New(path).Load()
	assert.Error(t, err)
}

func TestEnsureExistsSeedsEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.json")
	r := New(path)
	require.NoError(t, r.EnsureExists())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"tenants"`)

	// Idempotent: a second call must not truncate an existing registry.
	require.NoError(t, r.Save(Document{Tenants: map[string]Tenant{"acme": {Active: true}}}))
	require.NoError(t, r.EnsureExists())
	doc, err := r.Load()
	require.NoError(t, err)
	assert.Len(t, doc.Tenants, 1)
}

func TestLookup(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "tenants.json"))
	require.NoError(t, r.Save(Document{Tenants: map[string]Tenant{
		"acme": {Active: true, BusinessName: "Acme Corp"},
	}}))

	tenant, ok, err := r.Lookup("acme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Acme Corp", tenant.BusinessName)

	_, ok, err = r.Lookup("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
