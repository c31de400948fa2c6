package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
)

var (
	errMissingToken = errors.New("authentication required")
	errInvalidToken = errors.New("invalid token")
	errExpiredToken = errors.New("token has expired")
)

// Claims carries the actor identity. Subject is the actor id.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and validates HS256 actor tokens.
type Tokens struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewTokens(secret string, issuer string, ttl time.Duration) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("http.jwt_secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{signingKey: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (t *Tokens) Issue(actor qms.Actor) (string, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return "", errors.New("actor id is required")
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:  actor.Name,
		Email: actor.Email,
		Role:  string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(t.signingKey)
}

func (t *Tokens) Parse(raw string) (qms.Actor, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return qms.Actor{}, errExpiredToken
		}
		return qms.Actor{}, errInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return qms.Actor{}, errInvalidToken
	}
	role, err := qms.ParseRole(claims.Role)
	if err != nil {
		return qms.Actor{}, errInvalidToken
	}
	return qms.Actor{ID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: role}, nil
}

type actorKey struct{}

func withActor(ctx context.Context, actor qms.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor stored by the auth middleware.
func ActorFrom(ctx context.Context) (qms.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(qms.Actor)
	return actor, ok
}

// authenticate accepts "Authorization: Bearer <token>" or, for websocket
// clients that cannot set headers, a token query parameter.
func (t *Tokens) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("token"))
		if header := r.Header.Get("Authorization"); header != "" {
			scheme, value, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				writeUnauthorized(w, errInvalidToken)
				return
			}
			raw = strings.TrimSpace(value)
		}
		if raw == "" {
			writeUnauthorized(w, errMissingToken)
			return
		}

		actor, err := t.Parse(raw)
		if err != nil {
			writeUnauthorized(w, err)
			return
		}
		ctx := logging.WithRequest(withActor(r.Context(), actor), middleware.GetReqID(r.Context()), actor.ID, string(actor.Role))
		logging.Debug(ctx, "request authenticated", slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
