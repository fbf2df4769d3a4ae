// Package filestore keeps accounts and tokens in one encrypted file
// (storage.enc) inside the data directory.
package filestore

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/cryptox"
	"github.com/taurisky/taurisky/internal/filex"
	"github.com/taurisky/taurisky/internal/models"
)

// DataFileName is the sealed account/token file.
const DataFileName = "storage.enc"

type contents struct {
	Accounts map[string]models.Account   `json:"accounts"`
	Tokens   map[string]models.AuthToken `json:"tokens"`
}

// Store is the shared state behind the account and token repositories. Every
// operation reads, modifies and rewrites the whole file under one lock.
type Store struct {
	mu     sync.Mutex
	path   string
	sealer *cryptox.Sealer
}

func New(dataDir string, sealer *cryptox.Sealer) *Store {
	return &Store{path: filepath.Join(dataDir, DataFileName), sealer: sealer}
}

func (s *Store) load() (*contents, error) {
	c := &contents{Accounts: map[string]models.Account{}, Tokens: map[string]models.AuthToken{}}

	b, err := filex.ReadFileIfExists(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}
	if b == nil {
		return c, nil
	}

	if err := s.sealer.OpenJSON(string(b), c); err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	if c.Accounts == nil {
		c.Accounts = map[string]models.Account{}
	}
	if c.Tokens == nil {
		c.Tokens = map[string]models.AuthToken{}
	}
	return c, nil
}

func (s *Store) save(c *contents) error {
	sealed, err := s.sealer.SealJSON(c)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}
	return filex.WriteFileAtomic(s.path, []byte(sealed), 0o600)
}

// update runs fn on the current contents and persists them when fn succeeds.
func (s *Store) update(fn func(c *contents) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.save(c)
}

func (s *Store) read(fn func(c *contents) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return err
	}
	return fn(c)
}

// Accounts returns the account repository view.
func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{s: s}
}

// Tokens returns the token repository view.
func (s *Store) Tokens() *TokenRepository {
	return &TokenRepository{s: s}
}

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Save(ctx context.Context, a *models.Account) error {
	return r.s.update(func(c *contents) error {
		acc := *a
		if prev, ok := c.Accounts[a.ID]; ok {
			acc.CreatedAt = prev.CreatedAt
		}
		c.Accounts[a.ID] = acc
		return nil
	})
}

func (r *AccountRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	var out *models.Account
	err := r.s.read(func(c *contents) error {
		a, ok := c.Accounts[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *AccountRepository) GetByDID(ctx context.Context, did string) (*models.Account, error) {
	var out *models.Account
	err := r.s.read(func(c *contents) error {
		for _, a := range c.Accounts {
			if a.DID == did {
				out = &a
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return out, err
}

func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	out := []models.Account{}
	err := r.s.read(func(c *contents) error {
		for _, a := range c.Accounts {
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return r.s.update(func(c *contents) error {
		if _, ok := c.Accounts[id]; !ok {
			return common.ErrorNotFound
		}
		delete(c.Accounts, id)
		delete(c.Tokens, id)
		return nil
	})
}

type TokenRepository struct {
	s *Store
}

func (r *TokenRepository) Save(ctx context.Context, token models.AuthToken) error {
	return r.s.update(func(c *contents) error {
		c.Tokens[token.AccountID] = token
		return nil
	})
}

func (r *TokenRepository) Get(ctx context.Context, accountID string) (*models.AuthToken, error) {
	var out *models.AuthToken
	err := r.s.read(func(c *contents) error {
		t, ok := c.Tokens[accountID]
		if !ok {
			return common.ErrorNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *TokenRepository) Delete(ctx context.Context, accountID string) error {
	return r.s.update(func(c *contents) error {
		delete(c.Tokens, accountID)
		return nil
	})
}
