package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const KeyringService = "questsync"

var ErrNoToken = errors.New("backend: no session token stored")

// TokenSource supplies the bearer token for backend calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// KeyringToken reads the session token from the OS keyring.
type KeyringToken struct {
	Service string
	User    string
}

func NewKeyringToken(user string) *KeyringToken {
	return &KeyringToken{Service: KeyringService, User: user}
}

func (k *KeyringToken) Token(context.Context) (string, error) {
	token, err := keyring.Get(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return token, nil
}

func (k *KeyringToken) Store(token string) error {
	return keyring.Set(k.Service, k.User, token)
}

func (k *KeyringToken) Clear() error {
	err := keyring.Delete(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
