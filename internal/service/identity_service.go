package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/ops-desk/internal/auth"
	"github.com/spec-kit/ops-desk/internal/config"
	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/policy"
	"github.com/spec-kit/ops-desk/internal/repository"
	apperrors "github.com/spec-kit/ops-desk/pkg/util/errorutil"
)

// IdentityService owns user accounts: registration, lookup and login.
type IdentityService struct {
	store    repository.Store
	tokenMgr *auth.TokenManager
	revoked  auth.RevocationStore
	hasher   *auth.PasswordHasher
	clock    Clock
}

// IdentityDependencies encapsulates collaborators for the identity service.
type IdentityDependencies struct {
	Store       repository.Store
	Revocations auth.RevocationStore
	Clock       Clock
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.Config, deps IdentityDependencies) (*IdentityService, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	revoked := deps.Revocations
	if revoked == nil {
		revoked = auth.NewMemoryRevocationStore()
	}
	return &IdentityService{
		store:    deps.Store,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		revoked:  revoked,
		hasher:   hasher,
		clock:    clockOrNow(deps.Clock),
	}, nil
}

// FindByEmail returns the user with that email. found is false when none exists.
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (user *domain.User, found bool, err error) {
	user, err = s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.MapStorageError(err)
	}
	return user, true, nil
}

// GetByID loads a user.
func (s *IdentityService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}
	return user, nil
}

// Authenticate returns the user only if the password verifies. Unknown email
// and wrong password both yield ErrDenied.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, found, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	hash := ""
	if found {
		hash = user.PasswordHash
	}
	if !s.hasher.Verify(hash, password) {
		return nil, apperrors.ErrDenied
	}
	return user, nil
}

// Login authenticates and issues an access token.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Logout revokes the token until its natural expiry.
func (s *IdentityService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, tokenID, time.Until(expiresAt)); err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

// Create persists a new user with a freshly hashed password. No policy check
// is applied; callers acting on behalf of a user go through RegisterUser.
func (s *IdentityService) Create(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if !reg.Role.Valid() {
		return nil, apperrors.ErrInvalidRole.WithDetails(map[string]any{"role": string(reg.Role)})
	}
	reg.Email = normalizeEmail(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)
	if reg.FullName == "" || reg.Email == "" || reg.Password == "" {
		return nil, apperrors.NewValidationError("full_name, email, password required", nil)
	}
	if !strings.Contains(reg.Email, "@") {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": reg.Email})
	}
	if reg.SalaryCents < 0 {
		return nil, apperrors.NewValidationError("salary cannot be negative", nil)
	}

	if _, found, err := s.FindByEmail(ctx, reg.Email); err != nil {
		return nil, err
	} else if found {
		return nil, apperrors.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(reg.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("password longer than 72 bytes", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	joined := reg.DateOfJoining
	if joined.IsZero() {
		joined = s.clock()
	}

	user := &domain.User{
		FullName:        reg.FullName,
		Email:           reg.Email,
		PhoneNumber:     strings.TrimSpace(reg.PhoneNumber),
		NationalID:      strings.TrimSpace(reg.NationalID),
		ServiceDomain:   strings.TrimSpace(reg.ServiceDomain),
		Role:            reg.Role,
		EmploymentLevel: strings.TrimSpace(reg.EmploymentLevel),
		DateOfJoining:   domain.CalendarDate(joined, time.UTC),
		SalaryCents:     reg.SalaryCents,
		Certifications:  strings.TrimSpace(reg.Certifications),
		PasswordHash:    hash,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			if conflict.Field == "email" {
				return nil, apperrors.ErrDuplicateEmail
			}
			return nil, apperrors.NewConflict(conflict.Field+" already registered", map[string]any{"field": conflict.Field})
		}
		return nil, apperrors.MapStorageError(err)
	}
	return user, nil
}

// RegisterUser creates an account on behalf of actor.
func (s *IdentityService) RegisterUser(ctx context.Context, actor *domain.User, reg domain.Registration) (*domain.User, error) {
	if err := policy.Authorize(actor, policy.ActionRegisterUser); err != nil {
		return nil, err
	}
	return s.Create(ctx, reg)
}

// ListStaff returns every staff account, for picking an assignee.
func (s *IdentityService) ListStaff(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := policy.Authorize(actor, policy.ActionListStaff); err != nil {
		return nil, err
	}
	staff, err := s.store.Users().ListByRole(ctx, domain.RoleStaff)
	if err != nil {
		return nil, apperrors.MapStorageError(err)
	}
	return staff, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *IdentityService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Revocations exposes the revocation store for middleware usage.
func (s *IdentityService) Revocations() auth.RevocationStore {
	return s.revoked
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
