package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSecrets struct {
	values map[string]string // "path#key" → secret
	calls  int
}

func (f *fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	f.calls++
	if v, ok := f.values[path+"#"+key]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestResolveSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Database.DSN = "vault:secret/readflaneur/digest#dsn"
	cfg.Delivery.APIKey = "literal-key"

	if !cfg.HasVaultRefs() {
		t.Fatal("HasVaultRefs = false with a vault: DSN")
	}

	src := &fakeSecrets{values: map[string]string{
		"secret/readflaneur/digest#dsn": "user:pw@tcp(db:3306)/readflaneur",
	}}
	if err := ResolveSecrets(context.Background(), cfg, src); err != nil {
		t.Fatalf("ResolveSecrets: %v", err)
	}
	if cfg.Database.DSN != "user:pw@tcp(db:3306)/readflaneur" {
		t.Fatalf("DSN = %q", cfg.Database.DSN)
	}
	// Literals never hit the source.
	if cfg.Delivery.APIKey != "literal-key" || src.calls != 1 {
		t.Fatalf("literal touched: key=%q calls=%d", cfg.Delivery.APIKey, src.calls)
	}
}

func TestResolveSecrets_MalformedReference(t *testing.T) {
	for _, ref := range []string{"vault:no-separator", "vault:#key", "vault:path#"} {
		cfg := &Config{}
		cfg.Database.DSN = ref
		if err := ResolveSecrets(context.Background(), cfg, &fakeSecrets{}); err == nil {
			t.Errorf("ResolveSecrets(%q) succeeded, want error", ref)
		}
	}
}

func TestHasVaultRefs_AllLiterals(t *testing.T) {
	cfg := &Config{}
	cfg.Database.DSN = "user:pw@tcp(db:3306)/readflaneur"
	if cfg.HasVaultRefs() {
		t.Fatal("HasVaultRefs = true with only literals")
	}
}
