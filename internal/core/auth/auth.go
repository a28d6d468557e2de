// Package auth provides HMAC-based API key authentication for the gRPC
// validation service.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// MetadataKey carries the API key in gRPC metadata.
const MetadataKey = "x-api-key"

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

const clientKey = contextKey("client")

// publicPrefix covers the health service, which load balancers probe
// without credentials.
const publicPrefix = "/grpc.health.v1.Health/"

func isPublic(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, publicPrefix)
}

// Queries defines the database operations needed for authentication.
// Implemented by *db.Queries.
type Queries interface {
	Get(name string, dest any, args ...any) error
	Select(name string, dest any, args ...any) error
	Exec(name string, args ...any) (sql.Result, error)
}

// Client identifies the caller behind an authenticated request.
type Client struct {
	APIKeyID string
	Name     string
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	logger  *zap.Logger
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		logger:  logger,
	}
}

// Authenticate validates apiKey and returns the client it belongs to.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (Client, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return Client{}, err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return Client{}, ErrUnknownKey
	}

	// key_hash is unique, so at most one row matches
	var record KeyRecord
	err = a.queries.Get("get-api-key-by-hash", &record, HashAPIKey(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrInvalidKey
	}
	if err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if record.RevokedAt.Valid {
		return Client{}, ErrKeyRevoked
	}

	// 1-minute throttle keeps active clients from writing on every call
	if shouldUpdateLastUsed(record.LastUsedAt) {
		if _, err := a.queries.Exec("update-last-used", time.Now().UTC(), record.APIKeyID); err != nil {
			a.logger.Warn("failed to update api key last use", zap.String("api_key_id", record.APIKeyID), zap.Error(err))
		}
	}

	return Client{APIKeyID: record.APIKeyID, Name: record.Name}, nil
}

func shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return time.Since(lastUsed.Time) > time.Minute
}

// authenticateContext reads the key from incoming metadata and maps
// failures to gRPC status codes.
func (a *Authenticator) authenticateContext(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	apiKeys := md.Get(MetadataKey)
	if len(apiKeys) == 0 {
		return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
	}

	client, err := a.Authenticate(ctx, apiKeys[0])
	switch {
	case err == nil:
		return context.WithValue(ctx, clientKey, client), nil
	case errors.Is(err, ErrKeyRevoked):
		return nil, status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		a.logger.Error("api key store unavailable", zap.Error(err))
		return nil, status.Error(codes.Unavailable, ErrStoreUnavailable.Error())
	default:
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Health checks pass through unauthenticated.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublic(info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, err := a.authenticateContext(ctx)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor authenticates streaming calls once, at stream open.
func (a *Authenticator) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isPublic(info.FullMethod) {
			return handler(srv, ss)
		}
		ctx, err := a.authenticateContext(ss.Context())
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

// ClientFromContext extracts the authenticated client.
// ok is false for unauthenticated contexts.
func ClientFromContext(ctx context.Context) (Client, bool) {
	client, ok := ctx.Value(clientKey).(Client)
	return client, ok
}
