// internal/config/secrets.go
//
// Boot-time resolution of `vault:` references in config values.
//
// Context
// -------
// Production keeps the database DSN and the delivery API key in Vault, and
// the YAML carries references of the form
//
//	vault:<mount>/<path>#<key>
//
// ResolveSecrets swaps each reference for its secret after Load() and before
// anything connects.  Literal values pass through untouched, so development
// setups never need a Vault server.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const vaultPrefix = "vault:"

// SecretSource resolves one key from a secret path.  Implemented by
// internal/vault.Client.
type SecretSource interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// HasVaultRefs reports whether any config value needs a Vault round trip, so
// the boot path can skip the client entirely when nothing references one.
func (c *Config) HasVaultRefs() bool {
	for _, v := range c.secretFields() {
		if strings.HasPrefix(*v, vaultPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces every `vault:` reference in c with its secret.
func ResolveSecrets(ctx context.Context, c *Config, src SecretSource) error {
	for _, v := range c.secretFields() {
		if err := resolveRef(ctx, src, v); err != nil {
			return err
		}
	}
	return nil
}

// secretFields lists the values allowed to carry references.
func (c *Config) secretFields() []*string {
	return []*string{
		&c.Database.DSN,
		&c.Delivery.APIKey,
	}
}

func resolveRef(ctx context.Context, src SecretSource, val *string) error {
	if !strings.HasPrefix(*val, vaultPrefix) {
		return nil
	}
	ref := strings.TrimPrefix(*val, vaultPrefix)
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return fmt.Errorf("config: malformed vault reference %q, want vault:<path>#<key>", *val)
	}
	secret, err := src.GetKV(ctx, path, key, 0)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", *val, err)
	}
	*val = secret
	return nil
}
