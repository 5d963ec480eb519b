// Package auth registers users, verifies passwords, and issues and resolves
// bearer session tokens.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/swamys/hotfoods/internal/events"
	"github.com/swamys/hotfoods/internal/idgen"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUsernameTaken      = errors.New("username already exists")
)

// Principal is the caller identity attached to an authenticated request.
type Principal struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username,omitempty"`
	Role     model.Role `json:"role"`
}

// HasRole reports whether p holds one of roles.
func (p *Principal) HasRole(roles ...model.Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     model.Role `json:"role,omitempty"`
	Pic      string     `json:"pic,omitempty"`
}

// Service implements registration, login and token resolution.
type Service struct {
	store     store.Store
	publisher events.Publisher
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger

	// dummyHash is compared against when the username is unknown so a
	// failed login costs the same either way.
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an auth service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: &events.NoopPublisher{},
		ttl:       DefaultSessionTTL,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("hotfoods-dummy-password"), BcryptCost)
	return s
}

// Register creates a user. Role defaults to user and pic to DefaultPic.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if err := model.ValidateRegistration(req.Username, req.Password, req.Role, req.Pic); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	id, err := idgen.UserID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &model.User{
		ID:           id,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		Pic:          req.Pic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Pic == "" {
		u.Pic = model.DefaultPic
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	evt := events.UserRegistered{UserID: u.ID, Username: u.Username, Role: u.Role}
	if err := s.publisher.Publish(ctx, events.TopicUserRegistered, evt); err != nil {
		s.logger.Warn("failed to publish event", "topic", events.TopicUserRegistered, "err", err)
	}
	return u, nil
}

// Login verifies the password and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := idgen.Token()
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	sess := &model.Session{
		Token:     token,
		UserID:    u.ID,
		Role:      u.Role,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return sess, u, nil
}

// Authenticate resolves a session token. Expired sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := s.store.GetSession(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to delete expired session", "err", err)
		}
		return nil, ErrUnauthenticated
	}
	return &Principal{UserID: sess.UserID, Role: sess.Role}, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpired deletes every expired session and returns how many went.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal attached by WithPrincipal, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
