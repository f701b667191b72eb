package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"recipeshare/internal/user"
)

const janitorInterval = 15 * time.Minute

// Service handles login sessions.
type Service struct {
	sessions *SessionRepository
	users    *user.Service
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService creates a new Service.
func NewService(sessions *SessionRepository, users *user.Service, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, *user.User, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(ctx, u.ID, s.ttl)
	if err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve maps a token to the owning session, or (nil, nil) when invalid.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	return s.sessions.Get(ctx, token)
}

// StartJanitor sweeps expired sessions until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.sessions.DeleteExpired(ctx)
				if err != nil {
					s.log.Error().Err(err).Msg("session sweep failed")
					continue
				}
				if n > 0 {
					s.log.Debug().Int64("removed", n).Msg("expired sessions swept")
				}
			}
		}
	}()
}
