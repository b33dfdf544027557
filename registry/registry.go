// Package registry reads and writes the on-disk tenant registry.
//
// The registry is a single JSON document mapping tenant ids to tenant
// configuration. Tenants are provisioned by editing this file; at runtime
// the service only reads it, once per request, so there is no caching and
// no file locking. Concurrent writers are last-write-wins.
package registry

import (
	"encoding/json"
	"errors"
	"os"
)

type Tenant struct {
	Active         bool   `json:"active"`
	BusinessName   string `json:"business_name"`
	BusinessType   string `json:"business_type"`
	KeyServices    string `json:"key_services"`
	TargetAudience string `json:"target_audience"`
	BusinessInfo   string `json:"business_info"`
	OwnerEmail     string `json:"owner_email"`
}

type Document struct {
	Tenants map[string]Tenant `json:"tenants"`
}

type Registry struct {
	path string
}

func New(path string) *Registry {
	return &Registry{path: path}
}

// Load returns the full tenant document. A missing file is not an error:
// it loads as an empty document, the same as a registry with no tenants.
func (r *Registry) Load() (Document, error) {
	doc := Document{Tenants: map[string]Tenant{}}
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, err
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{Tenants: map[string]Tenant{}}, err
	}
	if doc.Tenants == nil {
		doc.Tenants = map[string]Tenant{}
	}
	return doc, nil
}

// Save overwrites the whole document.
func (r *Registry) Save(doc Document) error {
	if doc.Tenants == nil {
		doc.Tenants = map[string]Tenant{}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, append(b, '\n'), 0o644)
}

// EnsureExists seeds an empty document when the backing file is absent,
// so operators always have a file to edit.
func (r *Registry) EnsureExists() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return r.Save(Document{Tenants: map[string]Tenant{}})
}

// Lookup loads the registry and returns the tenant for id, if registered.
func (r *Registry) Lookup(id string) (Tenant, bool, error) {
	doc, err := r.Load()
	if err != nil {
		return Tenant{}, false, err
	}
	t, ok := doc.Tenants[id]
	return t, ok, err
}
