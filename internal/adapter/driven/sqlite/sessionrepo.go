package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port. Values
// are encrypted with AES-256-GCM before write and decrypted after read.
type SessionRepo struct {
	db     *DB
	key    []byte // 32-byte AES-256 key; nil disables writes.
	logger *slog.Logger
}

// NewSessionRepo creates a SessionRepo. key must be 32 bytes, or nil to run
// without persistence (writes return ErrEncryptionKeyNotSet, reads find nothing).
func NewSessionRepo(db *DB, key []byte, logger *slog.Logger) *SessionRepo {
	return &SessionRepo{db: db, key: key, logger: logger}
}

// SetCredential replaces the credential stored under key.TokenKey().
func (r *SessionRepo) SetCredential(ctx context.Context, key model.SessionKey, cred model.Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential %s: %w", key, err)
	}
	return r.replace(ctx, key.TokenKey(), string(payload))
}

// RawToken returns the decrypted token value as stored.
func (r *SessionRepo) RawToken(ctx context.Context, key model.SessionKey) (string, error) {
	return r.get(ctx, key.TokenKey())
}

// Credential decodes the stored token value. A value that is not a JSON
// object is treated as a bare access token.
func (r *SessionRepo) Credential(ctx context.Context, key model.SessionKey) (*model.Credential, error) {
	raw, err := r.get(ctx, key.TokenKey())
	if err != nil || raw == "" {
		return nil, err
	}

	var cred model.Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil || cred.Access == "" {
		return &model.Credential{Access: raw, Slug: key.Slug()}, nil
	}
	return &cred, nil
}

// ClearCredential deletes the credential for key.
func (r *SessionRepo) ClearCredential(ctx context.Context, key model.SessionKey) error {
	return r.delete(ctx, key.TokenKey())
}

// SetUser replaces the user record stored under key.UserKey().
func (r *SessionRepo) SetUser(ctx context.Context, key model.SessionKey, user model.StoredUser) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", key, err)
	}
	return r.replace(ctx, key.UserKey(), string(payload))
}

// User returns the stored user record. A record that no longer decodes is
// logged and reported as absent.
func (r *SessionRepo) User(ctx context.Context, key model.SessionKey) (*model.StoredUser, error) {
	raw, err := r.get(ctx, key.UserKey())
	if err != nil || raw == "" {
		return nil, err
	}

	var user model.StoredUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		r.logger.Warn("discarding undecodable stored user", "session", key.String(), "error", err)
		return nil, nil
	}
	return &user, nil
}

// ClearUser deletes the user record for key.
func (r *SessionRepo) ClearUser(ctx context.Context, key model.SessionKey) error {
	return r.delete(ctx, key.UserKey())
}

// Entries lists stored keys without decrypting values.
func (r *SessionRepo) Entries(ctx context.Context) ([]model.SessionEntry, error) {
	const query = `SELECT storage_key, updated_at FROM session_entries ORDER BY storage_key`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list session entries: %w", err)
	}
	defer rows.Close()

	var entries []model.SessionEntry
	for rows.Next() {
		var entry model.SessionEntry
		var updatedAt string
		if err := rows.Scan(&entry.Key, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session entry: %w", err)
		}
		entry.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for %q: %w", entry.Key, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session entries: %w", err)
	}

	return entries, nil
}

// replace removes the previous value and writes the new one in a single
// transaction so at most one value exists per storage key.
func (r *SessionRepo) replace(ctx context.Context, storageKey, plaintext string) error {
	encrypted, err := r.encrypt(plaintext)
	if err != nil {
		return err
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session write %q: %w", storageKey, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_entries WHERE storage_key = ?`, storageKey); err != nil {
		return fmt.Errorf("clear session entry %q: %w", storageKey, err)
	}

	const insert = `INSERT INTO session_entries (storage_key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := tx.ExecContext(ctx, insert, storageKey, encrypted); err != nil {
		return fmt.Errorf("write session entry %q: %w", storageKey, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session entry %q: %w", storageKey, err)
	}
	return nil
}

func (r *SessionRepo) get(ctx context.Context, storageKey string) (string, error) {
	if r.key == nil {
		return "", nil
	}

	const query = `SELECT value FROM session_entries WHERE storage_key = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, storageKey).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session entry %q: %w", storageKey, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt session entry %q: %w", storageKey, err)
	}
	return plaintext, nil
}

func (r *SessionRepo) delete(ctx context.Context, storageKey string) error {
	const query = `DELETE FROM session_entries WHERE storage_key = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, storageKey); err != nil {
		return fmt.Errorf("delete session entry %q: %w", storageKey, err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce prepended to the ciphertext.
func (r *SessionRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *SessionRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *SessionRepo) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
