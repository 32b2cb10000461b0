package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/database"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCompanyAlreadyExists = errors.New("company with this slug already exists")
	ErrCompanyNotFound      = errors.New("company not found")
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// apiSecretBytes is the entropy of generated API secrets
const apiSecretBytes = 32

// CompanyService manages tenants
type CompanyService interface {
	Create(ctx context.Context, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error)
	GetByID(ctx context.Context, actor *Actor, id string) (*dto.CompanyResponse, error)
	GetBySlug(ctx context.Context, actor *Actor, slug string) (*dto.CompanyResponse, error)
	// List returns companies; non super admins only see their current company
	List(ctx context.Context, actor *Actor, query *dto.ListCompaniesQuery) (*dto.PageResponse[*dto.CompanyResponse], error)
	Update(ctx context.Context, actor *Actor, id string, req *dto.UpdateCompanyRequest) (*dto.CompanyResponse, error)
	Delete(ctx context.Context, id string) error
	// RotateSecret replaces the API secret and returns the new one once
	RotateSecret(ctx context.Context, actor *Actor, id string) (*dto.CompanyResponse, error)
}

type companyService struct {
	repo   repository.CompanyRepository
	cipher *encryption.Cipher
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(repo repository.CompanyRepository, cipher *encryption.Cipher) CompanyService {
	return &companyService{repo: repo, cipher: cipher}
}

func (s *companyService) Create(ctx context.Context, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name, "-")
	}
	if slug == "" {
		return nil, invalid("Slug must contain letters or numbers")
	}

	exists, err := s.repo.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCompanyAlreadyExists
	}

	secret := req.APISecret
	if secret == "" {
		if secret, err = encryption.RandomHex(apiSecretBytes); err != nil {
			return nil, err
		}
	}
	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	company := &domain.Company{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Slug:      slug,
		Settings:  req.Settings,
		APISecret: encrypted,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if company.Settings == nil {
		company.Settings = make(map[string]interface{})
	}

	if err := s.repo.Create(ctx, company); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCompanyAlreadyExists
		}
		return nil, err
	}

	logger.Get().InfoContext(ctx, "company created", zap.String("company_id", company.ID), zap.String("slug", slug))

	resp := dto.NewCompanyResponse(company)
	resp.APISecret = secret
	return resp, nil
}

func (s *companyService) GetByID(ctx context.Context, actor *Actor, id string) (*dto.CompanyResponse, error) {
	company, err := s.accessibleCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return dto.NewCompanyResponse(company), nil
}

func (s *companyService) GetBySlug(ctx context.Context, actor *Actor, slug string) (*dto.CompanyResponse, error) {
	company, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	if !actor.CanAccessCompany(company.ID) {
		return nil, denied("You do not have access to this company")
	}
	return dto.NewCompanyResponse(company), nil
}

func (s *companyService) List(ctx context.Context, actor *Actor, query *dto.ListCompaniesQuery) (*dto.PageResponse[*dto.CompanyResponse], error) {
	query.SetDefaults()

	filter := repository.CompanyFilter{
		IsActive: query.IsActive,
		Search:   query.Search,
		Page:     query.Page,
		Limit:    query.Limit,
	}
	if !actor.IsSuperAdmin {
		filter.IDs = []string{actor.CompanyID}
	}

	companies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.CompanyResponse, 0, len(companies))
	for _, c := range companies {
		items = append(items, dto.NewCompanyResponse(c))
	}
	return dto.NewPageResponse(items, total, query.Page, query.Limit), nil
}

func (s *companyService) Update(ctx context.Context, actor *Actor, id string, req *dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalid("%s", msg)
	}

	company, err := s.accessibleCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Slug != nil && *req.Slug != company.Slug {
		exists, err := s.repo.ExistsBySlug(ctx, *req.Slug)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrCompanyAlreadyExists
		}
		company.Slug = *req.Slug
	}
	if req.Settings != nil {
		company.Settings = *req.Settings
	}
	if req.IsActive != nil && *req.IsActive != company.IsActive {
		company.IsActive = *req.IsActive
		if company.IsActive {
			company.InactiveAt = nil
		} else {
			now := time.Now()
			company.InactiveAt = &now
		}
	}
	company.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, company); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCompanyAlreadyExists
		}
		return nil, err
	}
	return dto.NewCompanyResponse(company), nil
}

func (s *companyService) Delete(ctx context.Context, id string) error {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if company == nil {
		return ErrCompanyNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *companyService) RotateSecret(ctx context.Context, actor *Actor, id string) (*dto.CompanyResponse, error) {
	company, err := s.accessibleCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	secret, err := encryption.RandomHex(apiSecretBytes)
	if err != nil {
		return nil, err
	}
	if company.APISecret, err = s.cipher.Encrypt(secret); err != nil {
		return nil, err
	}
	company.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}

	logger.Get().InfoContext(ctx, "company API secret rotated", zap.String("company_id", id), zap.String("actor_id", actor.UserID))

	resp := dto.NewCompanyResponse(company)
	resp.APISecret = secret
	return resp, nil
}

func (s *companyService) accessibleCompany(ctx context.Context, actor *Actor, id string) (*domain.Company, error) {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	if !actor.CanAccessCompany(company.ID) {
		return nil, denied("You do not have access to this company")
	}
	return company, nil
}

// Slugify lowercases s and collapses every run of non-alphanumerics into sep
func Slugify(s, sep string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), sep)
	return strings.Trim(slug, sep)
}
