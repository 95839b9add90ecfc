package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StoredToken is an API key kept for a remote service
type StoredToken struct {
	Service   string
	APIKey    string
	UpdatedAt time.Time
}

// Masked returns the key with all but the last four characters hidden
func (t *StoredToken) Masked() string {
	if len(t.APIKey) <= 4 {
		return "****"
	}
	return "****" + t.APIKey[len(t.APIKey)-4:]
}

// SaveToken saves or replaces the API key for a service
func (d *DB) SaveToken(service, apiKey string) error {
	_, err := d.Exec(`
		INSERT INTO auth_tokens (service, api_key, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			api_key = excluded.api_key,
			updated_at = CURRENT_TIMESTAMP
	`, service, apiKey)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// GetToken returns the stored key for a service, or nil if none is stored
func (d *DB) GetToken(service string) (*StoredToken, error) {
	var token StoredToken
	err := d.QueryRow(`
		SELECT service, api_key, updated_at
		FROM auth_tokens
		WHERE service = ?
	`, service).Scan(&token.Service, &token.APIKey, &token.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes the key for a service
func (d *DB) DeleteToken(service string) error {
	if _, err := d.Exec("DELETE FROM auth_tokens WHERE service = ?", service); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
