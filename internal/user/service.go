package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"recipeshare/internal/apperr"
)

const verificationTokenTTL = 48 * time.Hour

// Service implements account registration, email verification and preference
// management on top of the Repository.
type Service struct {
	repo        *Repository
	tokenSecret []byte
	baseURL     string
	log         zerolog.Logger
}

// NewService creates a new Service.
func NewService(repo *Repository, tokenSecret, baseURL string, log zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		tokenSecret: []byte(tokenSecret),
		baseURL:     baseURL,
		log:         log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates a new account and returns it together with the email
// verification link. Mail delivery is out of scope, so the link is logged for
// the operator to forward.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", apperr.InvalidInput("email %q is not valid", email)
	}
	if len(password) < 8 {
		return nil, "", apperr.InvalidInput("password must be at least 8 characters")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, "", apperr.InvalidInput("email %q is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, email, name, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.newVerificationToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	link := fmt.Sprintf("%s/api/v1/auth/verify?token=%s", s.baseURL, token)
	s.log.Info().Int64("user_id", u.ID).Str("link", link).Msg("verification link issued")

	return u, link, nil
}

// Authenticate checks email/password and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrUnauthorized
	}
	return u, nil
}

// VerifyEmail validates a verification token and flips the verified flag.
func (s *Service) VerifyEmail(ctx context.Context, tokenStr string) error {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.tokenSecret, nil
	})
	if err != nil || !token.Valid {
		return apperr.InvalidInput("verification token is invalid or expired")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return apperr.InvalidInput("verification token has a malformed subject")
	}

	if err := s.repo.SetVerified(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user %d", userID)
		}
		return err
	}
	s.log.Info().Int64("user_id", userID).Msg("email verified")
	return nil
}

// Get returns a user by id, as a NotFound error when absent.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %d", id)
	}
	return u, nil
}

// UpdatePreferences replaces the user's dietary profile.
func (s *Service) UpdatePreferences(ctx context.Context, id int64, prefs Preferences) error {
	if u, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	} else if u == nil {
		return apperr.NotFound("user %d", id)
	}
	return s.repo.UpdatePreferences(ctx, id, prefs)
}

// GetPreferences returns the user's dietary profile.
func (s *Service) GetPreferences(ctx context.Context, id int64) (*Preferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, id)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, apperr.NotFound("user %d", id)
	}
	return prefs, nil
}

// LinkTelegram stores the chat id the rollover notifier should message.
func (s *Service) LinkTelegram(ctx context.Context, id int64, chatID *int64) error {
	if u, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	} else if u == nil {
		return apperr.NotFound("user %d", id)
	}
	return s.repo.SetTelegramChatID(ctx, id, chatID)
}

func (s *Service) newVerificationToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(verificationTokenTTL)),
		Issuer:    "recipeshare",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}
	return signed, nil
}
