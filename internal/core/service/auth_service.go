package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const minPasswordLength = 8

// dummyHash is compared against when the login does not exist so that an
// unknown login costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("no-such-account"), bcrypt.DefaultCost)
	return h
})

// AuthService implements login and credential management for every actor
// kind. All kinds go through the same bcrypt comparison.
type AuthService struct {
	store    ports.CredentialStore
	tokens   ports.TokenService
	tokenTTL time.Duration
	cost     int
	log      zerolog.Logger
}

func NewAuthService(store ports.CredentialStore, tokens ports.TokenService, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{store: store, tokens: tokens, tokenTTL: tokenTTL, cost: bcrypt.DefaultCost, log: log}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

var _ ports.AuthService = (*AuthService)(nil)

func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }

func (s *AuthService) Login(ctx context.Context, kind domain.ActorKind, login, password string) (*ports.LoginResult, error) {
	login = normalizeLogin(login)
	if !kind.Valid() || login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	actor, err := s.store.FindByLogin(ctx, kind, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !actor.Active {
		s.log.Info().Str("kind", kind.String()).Str("actor_id", actor.ID).Msg("login refused for inactive actor")
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(actor.ID, actor.Kind, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("kind", kind.String()).Str("actor_id", actor.ID).Msg("login succeeded")
	return &ports.LoginResult{Token: token, ExpiresAt: exp, Actor: actor}, nil
}

func (s *AuthService) RegisterEndUser(ctx context.Context, login, password, displayName string) (*domain.Actor, error) {
	return s.create(ctx, domain.KindEndUser, login, password, displayName)
}

// RegisterStudio creates the credential record of a new tenant.
func (s *AuthService) RegisterStudio(ctx context.Context, login, password, name string) (*domain.Actor, error) {
	return s.create(ctx, domain.KindStudio, login, password, name)
}

// EnsureMasterAdmin seeds the master admin account. An existing account is
// left untouched, including its password.
func (s *AuthService) EnsureMasterAdmin(ctx context.Context, login, password string) error {
	_, err := s.store.FindByLogin(ctx, domain.KindMasterAdmin, normalizeLogin(login))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("seed master admin: %w", err)
	}

	created, err := s.create(ctx, domain.KindMasterAdmin, login, password, "Master admin")
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("seed master admin: %w", err)
	}
	s.log.Info().Str("actor_id", created.ID).Str("login", created.Login).Msg("master admin seeded")
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Actor, current, next string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	stored, err := s.store.FindByID(ctx, actor.Kind, actor.ID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, actor.Kind, actor.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// SetActive toggles an account. Master admins cannot be deactivated.
func (s *AuthService) SetActive(ctx context.Context, kind domain.ActorKind, id string, active bool) error {
	if !kind.Valid() || id == "" {
		return domain.ErrInvalidInput
	}
	if kind == domain.KindMasterAdmin && !active {
		return fmt.Errorf("%w: master admins cannot be deactivated", domain.ErrInvalidInput)
	}
	if err := s.store.SetActive(ctx, kind, id, active); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	s.log.Info().Str("kind", kind.String()).Str("actor_id", id).Bool("active", active).Msg("actor activation changed")
	return nil
}

// create validates and stores a new actor of the given kind.
func (s *AuthService) create(ctx context.Context, kind domain.ActorKind, login, password, displayName string) (*domain.Actor, error) {
	login = normalizeLogin(login)
	if login == "" || len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: login and a password of at least %d characters are required", domain.ErrInvalidInput, minPasswordLength)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.store.Create(ctx, &domain.Actor{
		Kind:         kind,
		Login:        login,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
