package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name in the OS keychain
const KeyringService = "relfinder"

// Secret names one credential that may live in the OS keychain
type Secret string

const (
	SecretEndpointPassword Secret = "sparql-password"
	SecretAPIKey           Secret = "api-key"
	SecretNeo4jPassword    Secret = "neo4j-password"
	SecretRedisPassword    Secret = "redis-password"
)

// Secrets lists every supported secret
var Secrets = []Secret{SecretEndpointPassword, SecretAPIKey, SecretNeo4jPassword, SecretRedisPassword}

// ParseSecret validates a secret name given on the command line
func ParseSecret(name string) (Secret, error) {
	for _, s := range Secrets {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown secret %q (expected one of %v)", name, Secrets)
}

// SecretStore keeps credentials in the OS keychain:
// - macOS: Keychain Access.app -> "relfinder"
// - Windows: Credential Manager -> "relfinder"
// - Linux: Secret Service (requires libsecret)
type SecretStore struct {
	logger *slog.Logger
}

// NewSecretStore creates a keychain-backed secret store
func NewSecretStore() *SecretStore {
	return &SecretStore{
		logger: slog.Default().With("component", "keyring"),
	}
}

// Set stores a secret
func (s *SecretStore) Set(secret Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", secret)
	}

	if err := keyring.Set(KeyringService, string(secret), value); err != nil {
		s.logger.Error("failed to save secret to keychain", "secret", secret, "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	s.logger.Info("secret saved to keychain", "secret", secret, "service", KeyringService)
	return nil
}

// Get returns a secret, or "" if it was never stored
func (s *SecretStore) Get(secret Secret) (string, error) {
	value, err := keyring.Get(KeyringService, string(secret))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return value, nil
}

// Delete removes a secret. Deleting a missing secret is not an error.
func (s *SecretStore) Delete(secret Secret) error {
	err := keyring.Delete(KeyringService, string(secret))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	s.logger.Info("secret deleted from keychain", "secret", secret)
	return nil
}

// Fill sets every empty credential in cfg from the keychain.
// Values from the file or environment always win.
func (s *SecretStore) Fill(cfg *Config) {
	targets := map[Secret]*string{
		SecretEndpointPassword: &cfg.Endpoint.Password,
		SecretAPIKey:           &cfg.API.APIKey,
		SecretNeo4jPassword:    &cfg.Neo4j.Password,
		SecretRedisPassword:    &cfg.Cache.Password,
	}

	for secret, target := range targets {
		if *target != "" {
			continue
		}
		value, err := s.Get(secret)
		if err != nil {
			// headless systems have no keychain
			s.logger.Debug("keychain not available", "error", err)
			return
		}
		if value != "" {
			*target = value
			s.logger.Debug("secret loaded from keychain", "secret", secret)
		}
	}
}

// MaskSecret masks a credential for display: "abcd...wxyz"
func MaskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	if len(value) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", value[:4], value[len(value)-4:])
}
