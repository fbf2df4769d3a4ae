// Package services contains the backend command handlers. This file
// implements AuthService: PDS login, token refresh, logout and the account
// registry.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/logging"
	"github.com/taurisky/taurisky/internal/models"
	"github.com/taurisky/taurisky/internal/server/atproto"
	"github.com/taurisky/taurisky/internal/server/repositories/repomanager"
)

// SessionClient is the PDS client used by AuthService.
type SessionClient interface {
	ServerURL() string
	CreateSessionWithRetry(ctx context.Context, identifier, password string) (*atproto.Session, error)
	RefreshSession(ctx context.Context, refreshJwt string) (*atproto.Session, error)
}

// ClientFactory returns the client for a PDS URL (empty means default).
type ClientFactory func(serverURL string) (SessionClient, error)

// PoolFactory adapts an atproto.Pool to a ClientFactory.
func PoolFactory(p *atproto.Pool) ClientFactory {
	return func(serverURL string) (SessionClient, error) {
		c, err := p.Get(serverURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

var ErrNoSession = errors.New("no stored session for account")

type AuthService struct {
	repomanager   repomanager.RepositoryManager
	clients       ClientFactory
	defaultServer string
	logger        logging.Logger
	now           func() time.Time
}

func NewAuthService(m repomanager.RepositoryManager, clients ClientFactory, defaultServer string, logger logging.Logger) *AuthService {
	if defaultServer == "" {
		defaultServer = common.DefaultServerURL
	}
	return &AuthService{
		repomanager:   m,
		clients:       clients,
		defaultServer: defaultServer,
		logger:        logger.With("module", "auth"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Register binds the auth commands on r.
func (s *AuthService) Register(r *bridge.Router) {
	r.Handle(bridge.CmdLogin, bridge.Typed(s.Login))
	r.Handle(bridge.CmdAddAccount, bridge.Typed(s.AddAccount))
	r.Handle(bridge.CmdLogout, bridge.NoResult(s.Logout))
	r.Handle(bridge.CmdRemoveAccount, bridge.NoResult(s.RemoveAccount))
	r.Handle(bridge.CmdRefreshSession, bridge.Typed(s.RefreshSession))
	r.Handle(bridge.CmdSessionStatus, bridge.Typed(s.SessionStatus))
	r.Handle(bridge.CmdRestoreSessions, bridge.NoArgs(s.RestoreSessions))
	r.Handle(bridge.CmdListAccounts, bridge.NoArgs(s.ListAccounts))
}

// Login authenticates against the PDS and stores the account as active. A
// DID that is already registered keeps its account id.
func (s *AuthService) Login(ctx context.Context, args bridge.CredentialsArgs) (*models.Account, error) {
	acc, err := s.authenticate(ctx, args)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "login succeeded", "account_id", acc.ID, "did", acc.DID)
	return acc, nil
}

// AddAccount registers another identity. It authenticates exactly like Login.
func (s *AuthService) AddAccount(ctx context.Context, args bridge.CredentialsArgs) (*models.Account, error) {
	acc, err := s.authenticate(ctx, args)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "account added", "account_id", acc.ID, "did", acc.DID)
	return acc, nil
}

func (s *AuthService) authenticate(ctx context.Context, args bridge.CredentialsArgs) (*models.Account, error) {
	serverURL := args.ServerURL
	if serverURL == "" {
		serverURL = s.defaultServer
	}

	client, err := s.clients(serverURL)
	if err != nil {
		return nil, err
	}

	session, err := client.CreateSessionWithRetry(ctx, args.Identifier, args.Password)
	if err != nil {
		s.logger.Warn(ctx, "createSession failed", "identifier", args.Identifier, "error", err)
		return nil, err
	}

	now := s.now()
	accounts := s.repomanager.Accounts()

	acc, err := accounts.GetByDID(ctx, session.DID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		acc = &models.Account{ID: uuid.NewString(), DID: session.DID, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	acc.Handle = session.Handle
	if session.Email != "" {
		acc.Email = session.Email
	}
	if session.DisplayName != "" {
		acc.DisplayName = session.DisplayName
	}
	if session.Avatar != "" {
		acc.Avatar = session.Avatar
	}
	acc.ServerURL = client.ServerURL()
	acc.LastUsedAt = now
	acc.IsActive = true

	if err := accounts.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	if err := s.repomanager.Tokens().Save(ctx, session.Token(acc.ID, now)); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return acc, nil
}

// Logout forgets the session; the account stays registered but inactive.
func (s *AuthService) Logout(ctx context.Context, args bridge.AccountArgs) error {
	if err := s.repomanager.Tokens().Delete(ctx, args.AccountID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	acc, err := s.getAccount(ctx, args.AccountID)
	if err != nil {
		return err
	}
	acc.IsActive = false
	if err := s.repomanager.Accounts().Save(ctx, acc); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.logger.Info(ctx, "logged out", "account_id", acc.ID)
	return nil
}

// RemoveAccount deletes the account and its session.
func (s *AuthService) RemoveAccount(ctx context.Context, args bridge.AccountArgs) error {
	if err := s.repomanager.Tokens().Delete(ctx, args.AccountID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if err := s.repomanager.Accounts().Delete(ctx, args.AccountID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("account %s: %w", args.AccountID, err)
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info(ctx, "account removed", "account_id", args.AccountID)
	return nil
}

// RefreshSession rotates the account's tokens against its PDS. An expired
// refresh token drops the stored session and returns atproto.ErrTokenExpired.
// The returned token carries deadlines only.
func (s *AuthService) RefreshSession(ctx context.Context, args bridge.AccountArgs) (*models.AuthToken, error) {
	acc, err := s.getAccount(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	token, err := s.getToken(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !token.RefreshExpiresAt.IsZero() && !now.Before(token.RefreshExpiresAt) {
		s.dropSession(ctx, acc.ID)
		return nil, atproto.ErrTokenExpired
	}

	client, err := s.clients(acc.ServerURL)
	if err != nil {
		return nil, err
	}

	session, err := client.RefreshSession(ctx, token.RefreshJwt)
	if err != nil {
		if errors.Is(err, atproto.ErrTokenExpired) {
			s.dropSession(ctx, acc.ID)
		}
		s.logger.Warn(ctx, "refresh failed", "account_id", acc.ID, "error", err)
		return nil, err
	}

	fresh := session.Token(acc.ID, now)
	if err := s.repomanager.Tokens().Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	s.logger.Debug(ctx, "session refreshed", "account_id", acc.ID, "access_expires_at", fresh.AccessExpiresAt)
	redacted := fresh.Redacted()
	return &redacted, nil
}

func (s *AuthService) dropSession(ctx context.Context, accountID string) {
	if err := s.repomanager.Tokens().Delete(ctx, accountID); err != nil {
		s.logger.Warn(ctx, "failed to drop expired session", "account_id", accountID, "error", err)
	}
}

// SessionStatus reports the stored token's deadlines without its secrets.
func (s *AuthService) SessionStatus(ctx context.Context, args bridge.AccountArgs) (*models.AuthToken, error) {
	token, err := s.getToken(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	redacted := token.Redacted()
	return &redacted, nil
}

// RestoreSessions lists active accounts that still hold a session, most
// recently used first.
func (s *AuthService) RestoreSessions(ctx context.Context) ([]models.Account, error) {
	all, err := s.repomanager.Accounts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	restored := []models.Account{}
	for _, acc := range all {
		if !acc.IsActive {
			continue
		}
		if _, err := s.repomanager.Tokens().Get(ctx, acc.ID); err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(ctx, "skipping account with unreadable session", "account_id", acc.ID, "error", err)
			}
			continue
		}
		restored = append(restored, acc)
	}

	sort.SliceStable(restored, func(i, j int) bool {
		return restored[i].LastUsedAt.After(restored[j].LastUsedAt)
	})
	return restored, nil
}

func (s *AuthService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	list, err := s.repomanager.Accounts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return list, nil
}

func (s *AuthService) getAccount(ctx context.Context, id string) (*models.Account, error) {
	acc, err := s.repomanager.Accounts().Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("account %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return acc, nil
}

func (s *AuthService) getToken(ctx context.Context, accountID string) (*models.AuthToken, error) {
	token, err := s.repomanager.Tokens().Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}
