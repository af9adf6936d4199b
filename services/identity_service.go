package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"knowledge-base/models"
	"knowledge-base/repositories"
)

const userLookupTimeout = 5 * time.Second

// Claims is the payload of the bearer tokens issued by AuthService.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IdentityService turns a bearer credential into a verified caller.
type IdentityService interface {
	// Resolve returns nil for an empty, malformed, expired or unknown
	// credential. The error is reserved for infrastructure failures.
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

type identityService struct {
	userRepo repositories.UserRepository
	secret   []byte
	cache    IdentityCache
	cacheTTL time.Duration
	logger   *slog.Logger

	// lookups collapses concurrent store reads for the same user.
	lookups singleflight.Group
}

// NewIdentityService builds the resolver. cache may be nil.
func NewIdentityService(userRepo repositories.UserRepository, secret []byte, cache IdentityCache, cacheTTL time.Duration, logger *slog.Logger) IdentityService {
	return &identityService{
		userRepo: userRepo,
		secret:   secret,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (s *identityService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, nil
	}

	claims, ok := s.parse(token)
	if !ok {
		identityLookups.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, token)
		if err != nil {
			s.logger.WarnContext(ctx, "identity cache read failed", "error", err)
		} else if hit {
			identityLookups.WithLabelValues("cached").Inc()
			return cached, nil
		}
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		identityLookups.WithLabelValues("invalid").Inc()
		return nil, nil
	}

	user, err := s.loadUser(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		identityLookups.WithLabelValues("unknown_user").Inc()
		return nil, nil
	}
	if err != nil {
		identityLookups.WithLabelValues("error").Inc()
		return nil, models.NewTransientError("identity lookup failed", err)
	}

	identity := models.NewIdentity(user)
	identityLookups.WithLabelValues("verified").Inc()

	if s.cache != nil {
		ttl := s.cacheTTL
		if claims.ExpiresAt != nil {
			if left := time.Until(claims.ExpiresAt.Time); left < ttl {
				ttl = left
			}
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, token, identity, ttl); err != nil {
				s.logger.WarnContext(ctx, "identity cache write failed", "error", err)
			}
		}
	}

	return identity, nil
}

// loadUser shares one store read between concurrent callers. The read runs
// detached from any single caller's cancellation; each caller stops waiting
// when its own context ends.
func (s *identityService) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ch := s.lookups.DoChan(id.String(), func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), userLookupTimeout)
		defer cancel()
		return s.userRepo.GetByID(lookupCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.User), nil
	}
}

func (s *identityService) parse(tokenString string) (*Claims, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}
