package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"digital-menu/db"
	"digital-menu/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthEventKind string

const (
	AuthSignedUp  AuthEventKind = "signed_up"
	AuthSignedIn  AuthEventKind = "signed_in"
	AuthSignedOut AuthEventKind = "signed_out"
)

type AuthEvent struct {
	Kind  AuthEventKind
	Email string
}

// AuthEvents fans auth state changes out to subscribers. Handlers run
// synchronously in subscription order on the publishing goroutine.
type AuthEvents struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(AuthEvent)
	ids  []int
}

func NewAuthEvents() *AuthEvents {
	return &AuthEvents{subs: make(map[int]func(AuthEvent))}
}

// Subscribe registers fn and returns the function that removes it. Calling the
// returned function more than once is harmless.
func (e *AuthEvents) Subscribe(fn func(AuthEvent)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = fn
	e.ids = append(e.ids, id)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs, id)
			for i, v := range e.ids {
				if v == id {
					e.ids = append(e.ids[:i], e.ids[i+1:]...)
					break
				}
			}
		})
	}
}

func (e *AuthEvents) Publish(ev AuthEvent) {
	e.mu.RLock()
	handlers := make([]func(AuthEvent), 0, len(e.ids))
	for _, id := range e.ids {
		handlers = append(handlers, e.subs[id])
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (e *AuthEvents) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.ids)
}

// ValidateCredentials checks the shape of an email/password pair before any lookup.
func ValidateCredentials(email, password string) error {
	email = normalizeEmail(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return invalidf("email %q", email)
	}
	if len(password) < minPasswordLen {
		return invalidf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

type AuthService struct {
	Events     *AuthEvents
	SessionTTL time.Duration
	Log        *zap.Logger
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) (*models.Admin, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{Email: email}
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO admins (email, password_hash) VALUES ($1, $2)
		RETURNING id::text`,
		email, string(hash),
	).Scan(&admin.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.Log.Info("admin created", zap.String("email", email))
	s.Events.Publish(AuthEvent{Kind: AuthSignedUp, Email: email})
	return admin, nil
}

// SignIn checks the password and opens a session. Failed attempts put the email
// on an exponential cooldown.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = normalizeEmail(email)
	if wait, err := LoginThrottleWaitSeconds(ctx, EmailSubject(email)); err == nil && wait > 0 {
		return nil, &ThrottledError{WaitSeconds: wait}
	}

	var adminID, hash string
	err := db.Pool.QueryRow(ctx, `SELECT id::text, password_hash FROM admins WHERE email = $1`, email).Scan(&adminID, &hash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		if ferr := RecordLoginFailed(ctx, EmailSubject(email)); ferr != nil {
			s.Log.Warn("record login failure", zap.Error(ferr))
		}
		return nil, ErrUnauthorized
	}
	if err := RecordLoginSuccess(ctx, EmailSubject(email)); err != nil {
		s.Log.Warn("record login success", zap.Error(err))
	}

	token := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO admin_sessions (token, admin_id, expires_at)
		VALUES ($1, $2, $3)`,
		token, uuid.MustParse(adminID), time.Now().Add(s.SessionTTL),
	)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(AuthEvent{Kind: AuthSignedIn, Email: email})
	return &models.Session{Token: token.String(), AdminID: adminID, Email: email}, nil
}

func (s *AuthService) SignOut(ctx context.Context, session *models.Session) error {
	token, err := uuid.Parse(session.Token)
	if err != nil {
		return ErrUnauthorized
	}
	if _, err := db.Pool.Exec(ctx, `DELETE FROM admin_sessions WHERE token = $1`, token); err != nil {
		return err
	}
	s.Events.Publish(AuthEvent{Kind: AuthSignedOut, Email: session.Email})
	return nil
}

// Session resolves a bearer token to a live session.
func (s *AuthService) Session(ctx context.Context, tokenStr string) (*models.Session, error) {
	token, err := uuid.Parse(tokenStr)
	if err != nil {
		return nil, ErrUnauthorized
	}
	sess := &models.Session{Token: token.String()}
	err = db.Pool.QueryRow(ctx, `
		SELECT a.id::text, a.email FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.token = $1 AND s.expires_at > now()`,
		token,
	).Scan(&sess.AdminID, &sess.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return sess, nil
}
