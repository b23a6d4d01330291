/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package credentials keeps Jira login details in the OS keyring.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	Service = "jira-work-hours"

	keyUsername = "JIRA_USERNAME"
	keyPAT      = "JIRA_PAT"
	keyURL      = "JIRA_URL"
)

// ErrIncomplete means the keyring holds no usable username and token pair.
var ErrIncomplete = errors.New("credentials: no stored username and token")

type Credentials struct {
	Username string
	PAT      string
	BaseURL  string
}

// Store reads and writes Credentials under Service.
type Store struct {
	service string
}

func NewStore() *Store { return &Store{service: Service} }

func (s *Store) get(key string) (string, error) {
	v, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring get %s: %w", key, err)
	}
	return v, nil
}

// Load returns what is stored. Username and PAT must both be present.
func (s *Store) Load() (Credentials, error) {
	var c Credentials
	var err error
	if c.Username, err = s.get(keyUsername); err != nil {
		return Credentials{}, err
	}
	if c.PAT, err = s.get(keyPAT); err != nil {
		return Credentials{}, err
	}
	if c.BaseURL, err = s.get(keyURL); err != nil {
		return Credentials{}, err
	}
	if c.Username == "" || c.PAT == "" {
		return Credentials{}, ErrIncomplete
	}
	return c, nil
}

// Save overwrites the stored values. An empty BaseURL leaves the stored URL untouched.
func (s *Store) Save(c Credentials) error {
	c.Username = strings.TrimSpace(c.Username)
	c.PAT = strings.TrimSpace(c.PAT)
	if c.Username == "" || c.PAT == "" {
		return ErrIncomplete
	}
	if err := keyring.Set(s.service, keyUsername, c.Username); err != nil {
		return fmt.Errorf("keyring set %s: %w", keyUsername, err)
	}
	if err := keyring.Set(s.service, keyPAT, c.PAT); err != nil {
		return fmt.Errorf("keyring set %s: %w", keyPAT, err)
	}
	if u := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); u != "" {
		if err := keyring.Set(s.service, keyURL, u); err != nil {
			return fmt.Errorf("keyring set %s: %w", keyURL, err)
		}
	}
	return nil
}

// Clear removes every stored value. Missing entries are not an error.
func (s *Store) Clear() error {
	for _, k := range []string{keyUsername, keyPAT, keyURL} {
		if err := keyring.Delete(s.service, k); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("keyring delete %s: %w", k, err)
		}
	}
	return nil
}
