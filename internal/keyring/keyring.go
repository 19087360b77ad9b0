// Package keyring keeps the server's PostgreSQL connection string in the OS
// keyring so it never has to appear in flags, .env files or shell history.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/menuboard/internal/constants"
)

var (
	ErrNotFound    = errors.New("no connection string stored in keyring")
	ErrUnavailable = errors.New("OS keyring is not available")
)

// Source says where a resolved connection string came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceKeyring  Source = "keyring"
	SourceNone     Source = "none"
)

func ConnectionString() (string, error) {
	connStr, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return connStr, nil
}

func SetConnectionString(connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, connStr); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	return nil
}

func DeleteConnectionString() error {
	err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	return nil
}

// Resolve picks the connection string to use: an explicit value wins,
// otherwise the keyring entry. A missing or unavailable keyring is not an
// error; it yields SourceNone.
func Resolve(explicit string) (string, Source) {
	if explicit != "" {
		return explicit, SourceExplicit
	}
	connStr, err := ConnectionString()
	if err != nil {
		return "", SourceNone
	}
	return connStr, SourceKeyring
}
