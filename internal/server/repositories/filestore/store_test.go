package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/cryptox"
	"github.com/taurisky/taurisky/internal/models"
)

func newStore(t *testing.T, dir string, key []byte) *Store {
	t.Helper()
	sealer, err := cryptox.NewSealer(key)
	require.NoError(t, err)
	return New(dir, sealer)
}

func account(id, did string, created time.Time) *models.Account {
	return &models.Account{
		ID:         id,
		DID:        did,
		Handle:     id + ".bsky.social",
		ServerURL:  common.DefaultServerURL,
		CreatedAt:  created,
		LastUsedAt: created,
		IsActive:   true,
	}
}

func TestAccounts_CRUD(t *testing.T) {
	key := common.GenerateRandByteArray(cryptox.KeySize)
	s := newStore(t, t.TempDir(), key)
	repo := s.Accounts()
	ctx := context.Background()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, account("bob", "did:plc:bob", t0.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, account("alice", "did:plc:alice", t0)))

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "did:plc:alice", got.DID)

	byDID, err := repo.GetByDID(ctx, "did:plc:bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", byDID.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].ID)

	require.NoError(t, repo.Delete(ctx, "alice"))
	require.ErrorIs(t, repo.Delete(ctx, "alice"), common.ErrorNotFound)
	_, err = repo.Get(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.GetByDID(ctx, "did:plc:alice")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAccounts_SaveKeepsCreationTime(t *testing.T) {
	s := newStore(t, t.TempDir(), common.GenerateRandByteArray(cryptox.KeySize))
	repo := s.Accounts()
	ctx := context.Background()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, account("alice", "did:plc:alice", t0)))

	update := account("alice", "did:plc:alice", t0.Add(time.Hour))
	update.IsActive = false
	require.NoError(t, repo.Save(ctx, update))
	assert.True(t, update.CreatedAt.Equal(t0.Add(time.Hour)), "caller's value is not modified")

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.False(t, got.IsActive)
}

func TestTokens_PersistAcrossReopenAndStaySealed(t *testing.T) {
	dir := t.TempDir()
	key := common.GenerateRandByteArray(cryptox.KeySize)
	ctx := context.Background()

	tok := models.AuthToken{
		AccountID:       "alice",
		AccessJwt:       "secret-access-jwt",
		RefreshJwt:      "secret-refresh-jwt",
		IssuedAt:        time.Now().UTC(),
		AccessExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, newStore(t, dir, key).Tokens().Save(ctx, tok))

	raw, err := os.ReadFile(filepath.Join(dir, DataFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-access-jwt")

	got, err := newStore(t, dir, key).Tokens().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "secret-refresh-jwt", got.RefreshJwt)

	_, err = newStore(t, dir, common.GenerateRandByteArray(cryptox.KeySize)).Tokens().Get(ctx, "alice")
	require.ErrorContains(t, err, "decryption failed")
}

func TestTokens_DeleteIsIdempotentAndAccountDeleteDropsToken(t *testing.T) {
	s := newStore(t, t.TempDir(), common.GenerateRandByteArray(cryptox.KeySize))
	ctx := context.Background()

	_, err := s.Tokens().Get(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, s.Tokens().Delete(ctx, "alice"))

	require.NoError(t, s.Accounts().Save(ctx, account("alice", "did:plc:alice", time.Now())))
	require.NoError(t, s.Tokens().Save(ctx, models.AuthToken{AccountID: "alice", AccessJwt: "a"}))
	require.NoError(t, s.Accounts().Delete(ctx, "alice"))

	_, err = s.Tokens().Get(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
