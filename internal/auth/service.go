package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sajidhasan/fieldorder/pkg/config"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/kv"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/remote"
	"github.com/sajidhasan/fieldorder/pkg/security"
)

const sessionKey = "session"

// refreshLeeway triggers a proactive rotate when the access token is about
// to expire, so long sync runs don't start with a dying token.
const refreshLeeway = 30 * time.Second

// Session is the device-cached auth state.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	EmployeeID   string `json:"employee_id"`
	UnlockHash   string `json:"unlock_hash,omitempty"`
}

type remoteGateway interface {
	Login(ctx context.Context, username, password string) (remote.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (remote.TokenPair, error)
	CurrentUser(ctx context.Context) (remote.UserInfo, error)
	Logout(ctx context.Context) error
}

// ServiceParams groups the session manager dependencies.
type ServiceParams struct {
	KV       kv.Store
	Remote   remoteGateway
	Password config.PasswordConfig
	Logger   *logger.Logger
}

// Service persists tokens in the key-value store, feeds the remote client
// with bearer tokens and supports offline unlock.
type Service struct {
	kv     kv.Store
	remote remoteGateway
	pwCfg  config.PasswordConfig
	logg   *logger.Logger
	mu     sync.Mutex
}

// NewService builds the session manager.
func NewService(params ServiceParams) (*Service, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote gateway is required")
	}
	return &Service{
		kv:     params.KV,
		remote: params.Remote,
		pwCfg:  params.Password,
		logg:   params.Logger,
	}, nil
}

// Login exchanges credentials, stores the session and records an unlock
// hash so the shell can reopen without connectivity.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	pair, err := s.remote.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	unlockHash, err := security.HashPassword(password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash unlock credential")
	}

	session := &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Username:     username,
		UnlockHash:   unlockHash,
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	// Tokens are persisted first so this authenticated call can use them.
	info, err := s.remote.CurrentUser(ctx)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "could not resolve employee id after login")
		}
		return session, nil
	}
	session.EmployeeID = info.UserID
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout clears the cached session. The remote call is best effort; local
// state is wiped even when it fails.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.remote.Logout(ctx); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "remote logout failed, clearing local session anyway")
	}
	if err := s.kv.Delete(ctx, sessionKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}
	return nil
}

// Unlock verifies the password against the stored Argon2id hash without
// touching the network.
func (s *Service) Unlock(ctx context.Context, password string) error {
	session, err := s.load(ctx)
	if err != nil {
		return err
	}
	if session.UnlockHash == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no offline credential stored")
	}
	ok, err := security.VerifyPassword(password, session.UnlockHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify unlock credential")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "wrong password")
	}
	return nil
}

// Session returns the cached session.
func (s *Service) Session(ctx context.Context) (*Session, error) {
	return s.load(ctx)
}

// EmployeeID returns the cached employee id for sync calls.
func (s *Service) EmployeeID(ctx context.Context) (string, error) {
	session, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return session.EmployeeID, nil
}

// Token implements remote.TokenSource. It rotates proactively when the
// access token is expired or about to expire.
func (s *Service) Token(ctx context.Context) (string, error) {
	session, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if expiry, ok := tokenExpiry(session.AccessToken); ok && time.Until(expiry) < refreshLeeway {
		return s.Refresh(ctx)
	}
	return session.AccessToken, nil
}

// Refresh implements remote.TokenSource. Serialized so a burst of 401s
// rotates the pair once.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	pair, err := s.remote.RefreshToken(ctx, session.RefreshToken)
	if err != nil {
		return "", err
	}
	session.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		session.RefreshToken = pair.RefreshToken
	}
	if err := s.save(ctx, session); err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

func (s *Service) load(ctx context.Context) (*Session, error) {
	data, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session")
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Corrupt cache self-heals as signed out.
		if s.logg != nil {
			s.logg.Warn(ctx, "cached session is malformed, treating as signed out")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	return &session, nil
}

func (s *Service) save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := s.kv.Set(ctx, sessionKey, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return nil
}

// tokenExpiry peeks at the JWT exp claim without verifying the signature;
// the server remains the authority, this only times proactive refresh.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
