package web

import (
	"context"
	"net/http"
	"strings"

	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/infra/logging"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const payerKey ctxKey = "payer"

// PayerClaims is the JWT payload issued by the identity service. The
// subject carries the account id; payer_type tells us which side of the
// marketplace is calling.
type PayerClaims struct {
	PayerType string `json:"payer_type"`
	jwt.RegisteredClaims
}

// PayerFrom returns the authenticated payer stored by Authenticate.
func PayerFrom(ctx context.Context) (model.PayerRef, bool) {
	p, ok := ctx.Value(payerKey).(model.PayerRef)
	return p, ok
}

func withPayer(ctx context.Context, p model.PayerRef) context.Context {
	return context.WithValue(ctx, payerKey, p)
}

// Authenticate validates the bearer token and injects the payer identity
// into the request context. Requests without a valid token are rejected
// before they reach a handler.
func Authenticate(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := &PayerClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			payer := model.PayerRef{Type: model.PayerType(claims.PayerType), ID: claims.Subject}
			if err := payer.Validate(); err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid payer identity")
				return
			}

			ctx := withPayer(r.Context(), payer)
			ctx = logging.WithPayerID(ctx, payer.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
