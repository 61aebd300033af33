package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/classboard/internal/auth"
	"github.com/marcogenualdo/classboard/internal/session"
)

type contextKey string

const accessTokenContextKey contextKey = "access_token"

// TokenResolver turns the cookie session into a usable access token.
// *auth.OAuth implements it.
type TokenResolver interface {
	Resolve(ctx context.Context, s session.Session) (auth.Credential, error)
}

// ErrorFunc writes the response for err.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

type AuthMiddleware struct {
	codec    *session.Codec
	resolver TokenResolver
	onError  ErrorFunc
	logger   *slog.Logger
}

func NewAuthMiddleware(codec *session.Codec, resolver TokenResolver, onError ErrorFunc, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		codec:    codec,
		resolver: resolver,
		onError:  onError,
		logger:   logger,
	}
}

// RequireAuth resolves the visitor's access token before next runs. A
// refreshed session is written to the response first, so the cookies are
// on the response whatever next does.
func (am *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred, err := am.resolver.Resolve(r.Context(), am.codec.Read(r))
		if err != nil {
			am.logger.Debug("no usable credential", "path", r.URL.Path, "error", err)
			am.onError(w, r, err)
			return
		}

		if cred.Refreshed {
			if err := am.codec.Write(w, cred.Session); err != nil {
				am.logger.Error("failed to write refreshed session", "error", err)
				am.onError(w, r, err)
				return
			}
		}

		ctx := context.WithValue(r.Context(), accessTokenContextKey, cred.AccessToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenContextKey).(string)
	return token, ok && token != ""
}

// WithAccessToken returns ctx carrying token, as RequireAuth does.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenContextKey, token)
}
