package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// KeyRecord is one row of the api_keys table.
type KeyRecord struct {
	APIKeyID   string       `db:"api_key_id"`
	Name       string       `db:"name"`
	SecretID   string       `db:"secret_id"`
	KeyHash    string       `db:"key_hash"`
	CreatedAt  time.Time    `db:"created_at"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
}

// Store issues, lists and revokes API keys.
type Store struct {
	secrets map[string][]byte
	queries Queries
}

func NewStore(secrets map[string][]byte, queries Queries) *Store {
	return &Store{secrets: secrets, queries: queries}
}

// Create issues a key for name signed with secretID. An empty secretID
// selects the highest configured one, which is the newest for UUIDv7 IDs.
// The plain key is returned once and never stored.
func (s *Store) Create(name, secretID string) (KeyRecord, string, error) {
	if name == "" {
		return KeyRecord{}, "", fmt.Errorf("key name cannot be empty")
	}
	if secretID == "" {
		secretID = s.newestSecretID()
	}
	secret, ok := s.secrets[secretID]
	if !ok {
		return KeyRecord{}, "", ErrUnknownKey
	}

	key, err := GenerateAPIKey(secretID)
	if err != nil {
		return KeyRecord{}, "", err
	}

	record := KeyRecord{
		APIKeyID:  string(types.NewAPIKeyID()),
		Name:      name,
		SecretID:  secretID,
		KeyHash:   HashAPIKey(secret, key),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.queries.Exec("insert-api-key", record.APIKeyID, record.Name, record.SecretID, record.KeyHash, record.CreatedAt); err != nil {
		return KeyRecord{}, "", fmt.Errorf("insert api key: %w", err)
	}
	return record, key, nil
}

// Revoke marks the key revoked. Revoking twice is not an error.
func (s *Store) Revoke(apiKeyID string) error {
	if _, err := types.ParseAPIKeyID(apiKeyID); err != nil {
		return fmt.Errorf("invalid api key id %q: %w", apiKeyID, err)
	}

	var record KeyRecord
	err := s.queries.Get("get-api-key-by-id", &record, apiKeyID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := s.queries.Exec("revoke-api-key", time.Now().UTC(), apiKeyID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

// List returns every key record, oldest first.
func (s *Store) List() ([]KeyRecord, error) {
	var records []KeyRecord
	if err := s.queries.Select("list-api-keys", &records); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return records, nil
}

func (s *Store) newestSecretID() string {
	ids := make([]string, 0, len(s.secrets))
	for id := range s.secrets {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	return ids[len(ids)-1]
}
