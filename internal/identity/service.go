package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/errors"
)

const (
	// Unauthenticated is the display name used when no user can be resolved.
	Unauthenticated = "Usuario no autenticado"

	MaxDisplayNameLength = 64

	defaultIssuer   = "asking"
	defaultTokenTTL = 30 * 24 * time.Hour
)

// ProfileStore keeps display names chosen after sign-in.
type ProfileStore interface {
	DisplayName(ctx context.Context, userID string) (string, bool, error)
	SetDisplayName(ctx context.Context, userID, name string) error
}

type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	Profiles ProfileStore
}

// Service verifies HS256 tokens and resolves the player's display name.
type Service struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	profiles ProfileStore
	now      func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		secret:   []byte(c.Secret),
		issuer:   c.Issuer,
		ttl:      c.TokenTTL,
		profiles: c.Profiles,
		now:      time.Now,
	}
	if s.issuer == "" {
		s.issuer = defaultIssuer
	}
	if s.ttl <= 0 {
		s.ttl = defaultTokenTTL
	}
	return s
}

type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// IssueGuest signs in a new guest user with the given display name.
func (s *Service) IssueGuest(ctx context.Context, displayName string) (string, domain.UserIdentity, error) {
	name, err := normalizeName(displayName)
	if err != nil {
		return "", domain.UserIdentity{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", domain.UserIdentity{}, fmt.Errorf("generate user ID: %w", err)
	}

	user := domain.UserIdentity{UserID: "guest|" + id.String(), DisplayName: name}
	tok, err := s.IssueToken(user.UserID, user.DisplayName)
	if err != nil {
		return "", domain.UserIdentity{}, err
	}

	slog.InfoContext(ctx, "identity: guest signed in", "user", user.UserID)
	return tok, user, nil
}

// IssueToken signs a token for userID carrying displayName as its name claim.
func (s *Service) IssueToken(userID, displayName string) (string, error) {
	now := s.now()
	claims := &Claims{
		Name: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Authenticate verifies token and returns the user it belongs to. A display
// name set through UpdateDisplayName wins over the token's name claim.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.UserIdentity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.UserIdentity{}, err
	}

	user := domain.UserIdentity{UserID: claims.Subject, DisplayName: claims.Name}

	if s.profiles != nil {
		name, ok, err := s.profiles.DisplayName(ctx, user.UserID)
		if err != nil {
			slog.WarnContext(ctx, "identity: profile lookup failed, using token name", "user", user.UserID, "error", err)
		} else if ok {
			user.DisplayName = name
		}
	}

	if user.DisplayName == "" {
		user.DisplayName = Unauthenticated
	}
	return user, nil
}

// ResolveDisplayName never fails: an unusable token resolves to Unauthenticated.
func (s *Service) ResolveDisplayName(ctx context.Context, token string) string {
	if token == "" {
		return Unauthenticated
	}

	user, err := s.Authenticate(ctx, token)
	if err != nil {
		slog.DebugContext(ctx, "identity: falling back to unauthenticated", "error", err)
		return Unauthenticated
	}
	return user.DisplayName
}

// UpdateDisplayName changes the display name of the token's user.
func (s *Service) UpdateDisplayName(ctx context.Context, token, displayName string) (domain.UserIdentity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.UserIdentity{}, err
	}

	name, err := normalizeName(displayName)
	if err != nil {
		return domain.UserIdentity{}, err
	}

	if s.profiles == nil {
		return domain.UserIdentity{}, errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("display names are read-only"))
	}
	if err := s.profiles.SetDisplayName(ctx, claims.Subject, name); err != nil {
		return domain.UserIdentity{}, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("update display name failed"),
			errors.WithCause(err),
		)
	}

	slog.InfoContext(ctx, "identity: display name updated", "user", claims.Subject)
	return domain.UserIdentity{UserID: claims.Subject, DisplayName: name}, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthenticated, errors.WithCause(err))
	}
	if claims.Subject == "" {
		return nil, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("token has no subject"))
	}
	return claims, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New(errors.CodeInvalidArgument, errors.WithMessagef("display name is required"))
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("display name longer than %d characters", MaxDisplayNameLength),
		)
	}
	return name, nil
}
