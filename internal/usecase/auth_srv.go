package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lab-booking/internal/authz"
	"lab-booking/internal/data/entity"
	"lab-booking/internal/data/repository"
	"lab-booking/internal/dto/request"
	"lab-booking/internal/dto/response"
	"lab-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned by Authenticate for a bad, expired or revoked token.
var ErrInvalidToken = fmt.Errorf("invalid or expired session: %w", authz.ErrUnauthenticated)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, sessionToken string) error
	Authenticate(ctx context.Context, accessToken string) (*authz.Principal, string, error)
	PurgeStaleSessions(ctx context.Context) (int64, error)
}

type authService struct {
	repo   *repository.Repository // users and sessions
	config *utils.Config
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	existingUser, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existingUser != nil {
		return nil, fmt.Errorf("email %s: %w", req.Email, ErrAlreadyExists)
	}

	existingUser, err = s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to check username", zap.Error(err), zap.String("username", req.Username))
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existingUser != nil {
		return nil, fmt.Errorf("username %s: %w", req.Username, ErrAlreadyExists)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// self-registration always yields a patient account; roles are granted by an admin
	now := time.Now()
	user := &entity.User{
		Base:         entity.NewBase(now),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Phone:        req.Phone,
		Role:         entity.RoleUser,
		IsActive:     true,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("user %s: %w", req.Email, ErrAlreadyExists)
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return s.issue(ctx, user, req.Client)
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	// identifier may be an email or a username
	user, err := s.repo.User.FindByEmail(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("identifier", req.Username))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		user, err = s.repo.User.FindByUsername(ctx, req.Username)
		if err != nil {
			s.log.Error("Failed to find user by username", zap.Error(err), zap.String("identifier", req.Username))
			return nil, fmt.Errorf("find user: %w", err)
		}
	}

	if user == nil {
		s.log.Warn("User not found for login", zap.String("identifier", req.Username))
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, ErrAccountInactive
	}

	resp, err := s.issue(ctx, user, req.Client)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return resp, nil
}

func (s *authService) Logout(ctx context.Context, sessionToken string) error {
	tokenUUID, err := uuid.Parse(sessionToken)
	if err != nil {
		s.log.Warn("Invalid session token format", zap.Error(err))
		return ErrInvalidToken
	}

	if err := s.repo.Session.Revoke(ctx, tokenUUID.String()); err != nil {
		s.log.Error("Failed to revoke session", zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}

	s.log.Info("User logged out", zap.String("session", tokenUUID.String()))
	return nil
}

// Authenticate resolves a bearer token to a principal. The role and lab come
// from the user row rather than the token claims, so a role change takes
// effect on the next request. The session token (jti) is returned for logout.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*authz.Principal, string, error) {
	claims, err := utils.ParseAccessToken(s.config.JWT, accessToken)
	if err != nil {
		s.log.Debug("Rejected access token", zap.Error(err))
		return nil, "", ErrInvalidToken
	}

	session, err := s.repo.Session.FindValidSession(ctx, claims.ID)
	if err != nil {
		return nil, "", fmt.Errorf("find session: %w", err)
	}
	if session == nil || !session.ActiveAt(time.Now()) || session.UserID.String() != claims.Subject {
		return nil, "", ErrInvalidToken
	}

	user, err := s.repo.User.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("find session user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidToken
	}
	if !user.IsActive {
		return nil, "", fmt.Errorf("%w: %w", ErrAccountInactive, authz.ErrUnauthenticated)
	}

	return authz.NewPrincipal(user.ID, string(user.Role), user.AssignedLab), claims.ID, nil
}

// PurgeStaleSessions removes sessions that expired or were revoked longer ago
// than the configured retention.
func (s *authService) PurgeStaleSessions(ctx context.Context) (int64, error) {
	days := s.config.JWT.SessionRetentionDays
	if days <= 0 {
		days = 7
	}

	purged, err := s.repo.Session.PurgeStale(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if purged > 0 {
		s.log.Info("Stale sessions purged", zap.Int64("count", purged))
	}
	return purged, nil
}

func (s *authService) issue(ctx context.Context, user *entity.User, client request.ClientInfo) (*response.AuthResponse, error) {
	hours := s.config.JWT.ExpiryHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()

	session := &entity.Session{
		BaseSimple: entity.NewBaseSimple(now),
		UserID:     user.ID,
		Token:      uuid.New(),
		ExpiresAt:  now.Add(time.Duration(hours) * time.Hour),
	}
	if client.UserAgent != "" {
		session.UserAgent = &client.UserAgent
	}
	if client.IPAddress != "" {
		session.IPAddress = &client.IPAddress
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := utils.SignAccessToken(s.config.JWT, user.ID, session.Token, string(user.Role), session.ExpiresAt)
	if err != nil {
		s.log.Error("Failed to sign access token", zap.Error(err))
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	resp := response.AuthToResponse(user, token, session.ExpiresAt)
	return &resp, nil
}
