package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgauth "github.com/stonebridge/storefront-backend/pkg/auth"
	"github.com/stonebridge/storefront-backend/pkg/auth/session"
	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
	"github.com/stonebridge/storefront-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the account controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest, clientIP string) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest, clientIP string) (*LoginResponse, error)
	Dashboard(ctx context.Context, customerID uuid.UUID) (*Dashboard, error)
	UpdateProfile(ctx context.Context, customerID uuid.UUID, req UpdateProfileRequest) (*CustomerView, error)
	ChangePassword(ctx context.Context, customerID uuid.UUID, req ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, req ResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req ResetConfirmRequest) error
}

type customerRepository interface {
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email, firstName, lastName, phone string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error
	ByResetTokenHash(ctx context.Context, tokenHash string) (*models.Customer, error)
	ClearResetToken(ctx context.Context, id uuid.UUID) error
}

type recentOrders interface {
	MostRecent(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type rateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	ResetTokenKey(tokenHash string) string
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type service struct {
	repo     customerRepository
	orders   recentOrders
	session  sessionManager
	store    rateLimitStore
	mailer   Mailer
	validate *validator.Validate
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	rlCfg    config.AuthRateLimitConfig
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build the account service.
type ServiceParams struct {
	Repo           customerRepository
	Orders         recentOrders
	SessionManager sessionManager
	Store          rateLimitStore
	Mailer         Mailer
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	RateLimits     config.AuthRateLimitConfig
}

// NewService constructs the account service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("customer repository is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		session:  params.SessionManager,
		store:    params.Store,
		mailer:   params.Mailer,
		validate: validator.New(),
		jwtCfg:   params.JWTConfig,
		pwCfg:    params.PasswordConfig,
		rlCfg:    params.RateLimits,
		now:      time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, clientIP string) (*LoginResponse, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := s.allow(ctx, "login:email:"+email, int64(s.rlCfg.LoginEmailLimit), s.rlCfg.LoginWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "login:ip:"+clientIP, int64(s.rlCfg.LoginIPLimit), s.rlCfg.LoginWindow); err != nil {
		return nil, err
	}

	customer, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := security.VerifyPassword(req.Password, customer.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issueTokens(ctx, customer)
}

func (s *service) Register(ctx context.Context, req RegisterRequest, clientIP string) (*LoginResponse, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := s.allow(ctx, "register:email:"+email, int64(s.rlCfg.RegisterEmailLimit), s.rlCfg.RegisterWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "register:ip:"+clientIP, int64(s.rlCfg.RegisterIPLimit), s.rlCfg.RegisterWindow); err != nil {
		return nil, err
	}

	existing, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	customer, err := s.repo.Create(ctx, &models.Customer{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
	}
	return s.issueTokens(ctx, customer)
}

func (s *service) Dashboard(ctx context.Context, customerID uuid.UUID) (*Dashboard, error) {
	customer, err := s.repo.ByID(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	dashboard := &Dashboard{Customer: FromModel(customer)}
	if preferred := customer.PreferredAddress(); preferred != nil {
		addr := preferred.Address
		dashboard.PreferredAddress = &addr
	}
	recent, err := s.orders.MostRecent(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup recent order")
	}
	dashboard.MostRecentOrder = recent
	return dashboard, nil
}

func (s *service) UpdateProfile(ctx context.Context, customerID uuid.UUID, req UpdateProfileRequest) (*CustomerView, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	customer, err := s.repo.ByID(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	email := normalizeEmail(req.Email)
	if email != customer.Email {
		other, err := s.repo.ByEmail(ctx, email)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
		}
		if other != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	phone := strings.TrimSpace(req.Phone)
	if err := s.repo.UpdateProfile(ctx, customerID, email, firstName, lastName, phone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	customer.Email = email
	customer.FirstName = firstName
	customer.LastName = lastName
	customer.Phone = phone
	view := FromModel(customer)
	return &view, nil
}

func (s *service) ChangePassword(ctx context.Context, customerID uuid.UUID, req ChangePasswordRequest) error {
	if err := s.validateStruct(req); err != nil {
		return err
	}
	customer, err := s.repo.ByID(ctx, customerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
	}
	if customer == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, customer.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect").
			WithDetails(map[string]string{"currentPassword": "current password is incorrect"})
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, customerID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if err := s.mailer.SendPasswordChanged(ctx, customer.Email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "send notification")
	}
	return nil
}

// RequestPasswordReset issues a reset token. Unknown emails return success
// so the endpoint does not leak which addresses hold accounts.
func (s *service) RequestPasswordReset(ctx context.Context, req ResetRequest) error {
	if err := s.validateStruct(req); err != nil {
		return err
	}
	email := normalizeEmail(req.Email)
	customer, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
	}
	if customer == nil {
		return nil
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	tokenHash := security.HashResetToken(token)
	expires := s.now().UTC().Add(s.pwCfg.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, customer.ID, tokenHash, expires); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset token")
	}
	if err := s.store.Set(ctx, s.store.ResetTokenKey(tokenHash), customer.ID.String(), s.pwCfg.ResetTokenTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cache reset token")
	}
	if err := s.mailer.SendPasswordReset(ctx, customer.Email, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "send reset email")
	}
	return nil
}

func (s *service) ConfirmPasswordReset(ctx context.Context, req ResetConfirmRequest) error {
	if err := s.validateStruct(req); err != nil {
		return err
	}
	tokenHash := security.HashResetToken(strings.TrimSpace(req.Token))

	key := s.store.ResetTokenKey(tokenHash)
	if _, err := s.store.Get(ctx, key); err != nil {
		if errors.Is(err, goredis.Nil) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "reset token is invalid or expired")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check reset token")
	}

	customer, err := s.repo.ByResetTokenHash(ctx, tokenHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
	}
	if customer == nil || customer.ResetTokenExpires == nil || customer.ResetTokenExpires.Before(s.now().UTC()) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "reset token is invalid or expired")
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, customer.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if err := s.repo.ClearResetToken(ctx, customer.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear reset token")
	}
	if err := s.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear reset token")
	}
	if err := s.mailer.SendPasswordChanged(ctx, customer.Email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "send notification")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, customer *models.Customer) (*LoginResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgauth.AccessTokenPayload{
		CustomerID: customer.ID,
		Email:      customer.Email,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Customer:     FromModel(customer),
	}, nil
}

func (s *service) allow(ctx context.Context, scope string, limit int64, window time.Duration) error {
	if limit <= 0 {
		return nil
	}
	allowed, _, err := s.store.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit check")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}

func (s *service) validateStruct(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		details := make(map[string]string, len(fieldErrors))
		for _, fe := range fieldErrors {
			details[fieldName(fe)] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate request")
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
