package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/MikhailRaia/shortlink/internal/auth"
)

// CookieName is the cookie carrying the signed client token.
const CookieName = "auth_token"

// ClientIdentity tags every caller with a stable client ID backed by a JWT.
type ClientIdentity struct {
	jwtService *auth.JWTService
}

// NewClientIdentity creates a ClientIdentity with the provided JWT service.
func NewClientIdentity(jwtService *auth.JWTService) *ClientIdentity {
	return &ClientIdentity{
		jwtService: jwtService,
	}
}

// Identify reuses the client ID from a valid auth cookie or issues a new one.
func (c *ClientIdentity) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var clientID string

		if cookie, err := r.Cookie(CookieName); err == nil {
			claims, err := c.jwtService.ValidateToken(cookie.Value)
			if err == nil {
				clientID = claims.ClientID
			} else {
				log.Debug().Err(err).Msg("Invalid client token, issuing a new one")
			}
		}

		if clientID == "" {
			clientID = auth.NewClientID()

			token, err := c.jwtService.GenerateToken(clientID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to generate client token")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(auth.TokenTTL.Seconds()),
			})

			log.Debug().Str("client_id", clientID).Msg("Issued client token")

			next.ServeHTTP(w, r.WithContext(auth.WithIssuedClientID(r.Context(), clientID)))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClientID(r.Context(), clientID)))
	})
}

// UnaryInterceptor reads a client token from the "authorization" metadata.
// Calls without a valid token proceed anonymously.
func (c *ClientIdentity) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return handler(ctx, req)
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return handler(ctx, req)
	}

	claims, err := c.jwtService.ValidateToken(bearer(values[0]))
	if err != nil {
		log.Debug().Err(err).Str("method", info.FullMethod).Msg("Invalid client token in metadata")
		return handler(ctx, req)
	}

	return handler(auth.WithClientID(ctx, claims.ClientID), req)
}

func bearer(v string) string {
	if token, ok := strings.CutPrefix(v, "Bearer "); ok {
		return token
	}
	return v
}
