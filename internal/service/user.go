package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/auth"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

type RegisterUserParams struct {
	Username string `validate:"required,min=3,max=64"`
	Email    string `validate:"omitempty,email"`
	Password string `validate:"required,min=6"`
	Role     string `validate:"omitempty,oneof=yonetici depo"`
}

type UpdateUserParams struct {
	Username *string `validate:"omitempty,min=3,max=64"`
	Email    *string `validate:"omitempty,email"`
	Role     *string `validate:"omitempty,oneof=yonetici depo"`
	Password *string `validate:"omitempty,min=6"`
}

type LoginResult struct {
	Token string
	User  model.User
}

type UserService interface {
	Register(ctx context.Context, params RegisterUserParams) (model.User, error)

	// Login verifies the credentials against the stored bcrypt hash and
	// issues a session token. The same error is returned for an unknown
	// username and a wrong password.
	Login(ctx context.Context, username, password string) (LoginResult, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	userRepo  repository.UserRepository
	tokens    *auth.TokenIssuer
	validator validator.Validator
}

func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenIssuer, v validator.Validator) UserService {
	return &userService{
		userRepo:  userRepo,
		tokens:    tokens,
		validator: v,
	}
}

func (s *userService) Register(ctx context.Context, params RegisterUserParams) (model.User, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.User{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.RoleDepot
	}

	user := model.User{
		ID:           id,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("user repository create user: %w", err)
	}

	return user, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return LoginResult{}, apperr.InvalidCredentials
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return LoginResult{}, apperr.InvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return LoginResult{Token: token, User: user}, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("user repository list users: %w", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (model.User, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.User{}, err
	}

	repoParams := repository.UpdateUserParams{
		Username: params.Username,
		Email:    params.Email,
		Role:     params.Role,
	}
	if params.Password != nil {
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		repoParams.PasswordHash = &hash
	}

	user, err := s.userRepo.UpdateUser(ctx, id, repoParams)
	if err != nil {
		return model.User{}, fmt.Errorf("user repository update user: %w", err)
	}

	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("user repository delete user: %w", err)
	}
	return nil
}
