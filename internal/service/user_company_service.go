package service

import (
	"context"
	"errors"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/google/uuid"
)

var (
	ErrUserCompanyExists   = errors.New("user already belongs to this company")
	ErrUserCompanyNotFound = errors.New("user does not belong to this company")
)

// UserCompanyService manages which companies a user can act on, and with which role
type UserCompanyService interface {
	// Add grants access; the first membership, or one requested as primary, becomes primary
	Add(ctx context.Context, userID string, req *dto.AddUserCompanyRequest) (*domain.UserCompany, error)
	List(ctx context.Context, userID string) ([]*domain.UserCompany, error)
	Remove(ctx context.Context, userID, companyID string) error
	ChangeRole(ctx context.Context, userID, companyID, roleID string) (*domain.UserCompany, error)
	SetPrimary(ctx context.Context, userID, companyID string) error
}

type userCompanyService struct {
	memberships repository.UserCompanyRepository
	users       repository.UserRepository
	companies   repository.CompanyRepository
	roles       repository.RoleRepository
}

// NewUserCompanyService creates a new UserCompanyService
func NewUserCompanyService(
	memberships repository.UserCompanyRepository,
	users repository.UserRepository,
	companies repository.CompanyRepository,
	roles repository.RoleRepository,
) UserCompanyService {
	return &userCompanyService{
		memberships: memberships,
		users:       users,
		companies:   companies,
		roles:       roles,
	}
}

func (s *userCompanyService) Add(ctx context.Context, userID string, req *dto.AddUserCompanyRequest) (*domain.UserCompany, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}

	role, err := s.roles.GetByID(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	existing, err := s.memberships.Get(ctx, userID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserCompanyExists
	}

	current, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	uc := &domain.UserCompany{
		ID:        uuid.New().String(),
		UserID:    userID,
		CompanyID: req.CompanyID,
		RoleID:    req.RoleID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Company:   company,
		Role:      role,
	}
	if err := s.memberships.Create(ctx, uc); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserCompanyExists
		}
		return nil, err
	}

	if req.IsPrimary || len(current) == 0 {
		if err := s.memberships.SetPrimary(ctx, userID, req.CompanyID); err != nil {
			return nil, err
		}
		uc.IsPrimary = true
	}
	return uc, nil
}

func (s *userCompanyService) List(ctx context.Context, userID string) ([]*domain.UserCompany, error) {
	return s.memberships.ListByUser(ctx, userID)
}

func (s *userCompanyService) Remove(ctx context.Context, userID, companyID string) error {
	if _, err := s.find(ctx, userID, companyID); err != nil {
		return err
	}
	return mapMembership(s.memberships.Delete(ctx, userID, companyID))
}

func (s *userCompanyService) ChangeRole(ctx context.Context, userID, companyID, roleID string) (*domain.UserCompany, error) {
	uc, err := s.find(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	if err := s.memberships.UpdateRole(ctx, userID, companyID, roleID); err != nil {
		return nil, mapMembership(err)
	}
	uc.RoleID = roleID
	uc.Role = role
	return uc, nil
}

func (s *userCompanyService) SetPrimary(ctx context.Context, userID, companyID string) error {
	if _, err := s.find(ctx, userID, companyID); err != nil {
		return err
	}
	return mapMembership(s.memberships.SetPrimary(ctx, userID, companyID))
}

func (s *userCompanyService) find(ctx context.Context, userID, companyID string) (*domain.UserCompany, error) {
	uc, err := s.memberships.Get(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	if uc == nil {
		return nil, ErrUserCompanyNotFound
	}
	return uc, nil
}

func mapMembership(err error) error {
	if errors.Is(err, repository.ErrMembershipNotFound) {
		return ErrUserCompanyNotFound
	}
	return err
}
