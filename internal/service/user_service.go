package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserService manages admin console accounts
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	// List returns users; non super admins only see members of their current company
	List(ctx context.Context, actor *Actor, query *dto.ListUsersQuery) (*dto.PageResponse[*dto.UserResponse], error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	users      repository.UserRepository
	cipher     *encryption.Cipher
	bcryptCost int
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository, cipher *encryption.Cipher, bcryptCost int) UserService {
	return &userService{users: users, cipher: cipher, bcryptCost: bcryptCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	emailHash := s.cipher.Hash(email)

	existing, err := s.users.GetByEmailHash(ctx, emailHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := encryption.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		EmailHash:    emailHash,
		MobileHash:   s.cipher.Hash(req.Mobile),
		PasswordHash: passwordHash,
		Name:         req.Name,
		IsVerified:   req.IsVerified,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Email, err = s.cipher.Encrypt(email); err != nil {
		return nil, err
	}
	if user.Mobile, err = s.cipher.Encrypt(req.Mobile); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return s.toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, actor *Actor, query *dto.ListUsersQuery) (*dto.PageResponse[*dto.UserResponse], error) {
	query.SetDefaults()

	companyID, err := actor.ScopeCompany(query.CompanyID)
	if err != nil {
		return nil, err
	}

	users, total, err := s.users.List(ctx, companyID, query.Page, query.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, s.toUserResponse(u))
	}
	return dto.NewPageResponse(items, total, query.Page, query.Limit), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		emailHash := s.cipher.Hash(email)
		if emailHash != user.EmailHash {
			other, err := s.users.GetByEmailHash(ctx, emailHash)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, ErrUserAlreadyExists
			}
		}
		if user.Email, err = s.cipher.Encrypt(email); err != nil {
			return nil, err
		}
		user.EmailHash = emailHash
	}
	if req.Mobile != nil {
		if user.Mobile, err = s.cipher.Encrypt(*req.Mobile); err != nil {
			return nil, err
		}
		user.MobileHash = s.cipher.Hash(*req.Mobile)
	}
	if req.Password != nil {
		if user.PasswordHash, err = encryption.HashPassword(*req.Password, s.bcryptCost); err != nil {
			return nil, err
		}
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return s.toUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

func (s *userService) find(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// toUserResponse decrypts contact fields on a copy
func (s *userService) toUserResponse(u *domain.User) *dto.UserResponse {
	plain := *u
	plain.Email = s.cipher.Decrypt(u.Email)
	plain.Mobile = s.cipher.Decrypt(u.Mobile)
	return dto.NewUserResponse(&plain)
}
