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

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*response.UserResponse, error)
	GetAllUsers(ctx context.Context, req *request.UserFilterRequest) (*response.PaginatedResponse[response.UserResponse], error)
	AssignRole(ctx context.Context, userID string, req *request.AssignRoleRequest) (*response.UserResponse, error)
	DeleteUser(ctx context.Context, userID string) error
}

type userService struct {
	userRepo repository.UserRepository
	labRepo  repository.LabRepository
	sessions repository.SessionRepository
	log      *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		userRepo: repo.User,
		labRepo:  repo.Lab,
		sessions: repo.Session,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, userID string) (*response.UserResponse, error) {
	user, err := us.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

// GetAllUsers lists accounts for admins, optionally narrowed to one role.
func (us *userService) GetAllUsers(ctx context.Context, req *request.UserFilterRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	var role *entity.UserRole
	if req.Role != nil {
		r := entity.UserRole(authz.ParseRole(*req.Role))
		role = &r
	}

	users, err := us.userRepo.FindAll(ctx, req.Limit(), req.Offset(), role)
	if err != nil {
		us.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("get users: %w", err)
	}

	total, err := us.userRepo.CountAll(ctx, role)
	if err != nil {
		us.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("count users: %w", err)
	}

	userResponses := make([]response.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = response.UserToResponse(user)
	}

	us.log.Info("Users retrieved",
		zap.Int("count", len(users)),
		zap.Int64("total", total),
		zap.Int("page", req.Page),
		zap.Int("per_page", req.PerPage),
	)

	return response.NewPaginatedResponse(userResponses, req.Page, req.PerPage, total), nil
}

// AssignRole changes a user's role and lab. local_admin must name an existing
// lab; every other role has its lab cleared since only local_admin is scoped.
func (us *userService) AssignRole(ctx context.Context, userID string, req *request.AssignRoleRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	user, err := us.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	role := authz.ParseRole(req.Role)
	var lab *uuid.UUID
	if role == authz.RoleLocalAdmin {
		if req.AssignedLab == nil || *req.AssignedLab == "" {
			return nil, invalid("local_admin requires an assigned lab")
		}
		id, err := uuid.Parse(*req.AssignedLab)
		if err != nil || id == uuid.Nil {
			return nil, invalid("invalid lab ID format %s", *req.AssignedLab)
		}
		found, err := us.labRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find lab: %w", err)
		}
		if found == nil {
			return nil, notFound("lab", id.String())
		}
		lab = &id
	}

	previous := user.Role
	user.Role = entity.UserRole(role)
	user.AssignedLab = lab
	user.UpdatedAt = time.Now()

	if err := us.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("user", userID)
		}
		us.log.Error("Failed to assign role", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("assign role: %w", err)
	}

	us.log.Info("Role assigned",
		zap.String("user_id", userID),
		zap.String("from", string(previous)),
		zap.String("to", string(user.Role)),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) DeleteUser(ctx context.Context, userID string) error {
	user, err := us.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := us.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound("user", userID)
		}
		us.log.Error("Failed to delete user", zap.Error(err), zap.String("id", userID))
		return fmt.Errorf("delete user: %w", err)
	}

	if err := us.sessions.RevokeAllUserSessions(ctx, user.ID); err != nil {
		us.log.Warn("Failed to revoke sessions of deleted user", zap.Error(err), zap.String("id", userID))
	}

	us.log.Info("User deleted", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return nil
}

func (us *userService) findUser(ctx context.Context, userID string) (*entity.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		us.log.Warn("Invalid user ID", zap.String("user_id", userID), zap.Error(err))
		return nil, invalid("invalid user ID format %s", userID)
	}

	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, notFound("user", userID)
	}

	return user, nil
}
