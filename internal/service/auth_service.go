package service

import (
	"context"
	"errors"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/middleware"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/telemetry"
	"go.uber.org/zap"
)

// AllCompanies selects the cross-tenant view in SwitchCompany
const AllCompanies = "ALL"

const loginHistoryLimit = 100

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email address has not been verified")
	ErrUserInactive       = errors.New("user account is disabled")
)

// AuthService handles admin login and company context switching
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*dto.LoginResponse, error)
	// SwitchCompany reissues the token for another company, or for AllCompanies
	SwitchCompany(ctx context.Context, claims *middleware.Claims, companyID string) (*dto.TokenResponse, error)
	LoginHistory(ctx context.Context, userID string) ([]*domain.LoginHistory, error)
}

// AuthServiceConfig contains configuration for admin tokens
type AuthServiceConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	Issuer         string
}

type authService struct {
	users       repository.UserRepository
	memberships repository.UserCompanyRepository
	companies   repository.CompanyRepository
	logins      repository.LoginHistoryRepository
	settings    SettingsService
	cipher      *encryption.Cipher
	config      *AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repository.UserRepository,
	memberships repository.UserCompanyRepository,
	companies repository.CompanyRepository,
	logins repository.LoginHistoryRepository,
	settings SettingsService,
	cipher *encryption.Cipher,
	config *AuthServiceConfig,
) AuthService {
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = 24 * time.Hour
	}
	return &authService{
		users:       users,
		memberships: memberships,
		companies:   companies,
		logins:      logins,
		settings:    settings,
		cipher:      cipher,
		config:      config,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, client ClientInfo) (*dto.LoginResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	email := normalizeEmail(req.Email)
	user, err := s.users.GetByEmailHash(ctx, s.cipher.Hash(email))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entry := &domain.LoginHistory{
		SubjectType: domain.LoginSubjectUser,
		IPAddress:   client.IP,
		UserAgent:   client.UserAgent,
	}

	if user == nil || !encryption.CheckPassword(user.PasswordHash, req.Password) {
		entry.SubjectID = email
		entry.FailureReason = "invalid credentials"
		s.recordLogin(ctx, entry)
		return nil, ErrInvalidCredentials
	}
	entry.SubjectID = user.ID

	if !user.IsActive {
		entry.FailureReason = "inactive"
		s.recordLogin(ctx, entry)
		return nil, ErrUserInactive
	}

	if s.settings != nil && s.settings.IsTrue(ctx, domain.SettingEmailVerificationRequired) && !user.IsVerified {
		entry.FailureReason = "email not verified"
		s.recordLogin(ctx, entry)
		return nil, ErrEmailNotVerified
	}

	memberships, err := s.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var current *domain.UserCompany
	for _, uc := range memberships {
		if uc.IsPrimary {
			current = uc
			break
		}
	}
	if current == nil && len(memberships) > 0 {
		current = memberships[0]
	}

	superAdmin := superAdminMembership(memberships) != nil
	plainEmail := s.cipher.Decrypt(user.Email)

	claims := s.baseClaims(user, plainEmail, memberships, superAdmin)
	var currentCompany *dto.CurrentCompany
	if current != nil {
		applyRole(claims, current.Role)
		if !superAdmin {
			claims.CurrentCompanyID = current.CompanyID
		}
		currentCompany = &dto.CurrentCompany{
			ID:        current.CompanyID,
			Name:      companyName(current),
			RoleID:    current.RoleID,
			RoleName:  current.Role.Name,
			RoleLevel: current.Role.Level,
		}
	}

	token, err := middleware.GenerateToken(s.config.JWTSecret, claims, s.config.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	entry.Success = true
	entry.CompanyID = claims.CurrentCompanyID
	s.recordLogin(ctx, entry)

	companies := make([]dto.CompanyAccess, 0, len(memberships))
	for _, uc := range memberships {
		companies = append(companies, dto.CompanyAccess{
			ID:          uc.CompanyID,
			Name:        companyName(uc),
			RoleID:      uc.RoleID,
			RoleName:    uc.Role.Name,
			RoleLevel:   uc.Role.Level,
			IsPrimary:   uc.IsPrimary,
			Permissions: uc.Role.PermissionSlugs(),
		})
	}

	logger.Get().InfoContext(ctx, "admin login",
		zap.String("user_id", user.ID),
		zap.Bool("super_admin", superAdmin),
		zap.Int("companies", len(memberships)),
	)

	return &dto.LoginResponse{
		AccessToken: token,
		User: dto.LoginUser{
			ID:             user.ID,
			Email:          plainEmail,
			Companies:      companies,
			CurrentCompany: currentCompany,
		},
	}, nil
}

func (s *authService) SwitchCompany(ctx context.Context, claims *middleware.Claims, companyID string) (*dto.TokenResponse, error) {
	user, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	memberships, err := s.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	super := superAdminMembership(memberships)

	next := s.baseClaims(user, s.cipher.Decrypt(user.Email), memberships, super != nil)

	switch {
	case companyID == AllCompanies:
		if super == nil {
			return nil, denied("Only super admins can view all companies")
		}
		applyRole(next, super.Role)

	default:
		var target *domain.UserCompany
		for _, uc := range memberships {
			if uc.CompanyID == companyID {
				target = uc
				break
			}
		}

		if target == nil {
			if super == nil {
				return nil, denied("You do not have access to this company")
			}
			company, err := s.companies.GetByID(ctx, companyID)
			if err != nil {
				return nil, err
			}
			if company == nil {
				return nil, ErrCompanyNotFound
			}
			target = super
		}

		applyRole(next, target.Role)
		next.CurrentCompanyID = companyID
	}

	token, err := middleware.GenerateToken(s.config.JWTSecret, next, s.config.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	logger.Get().InfoContext(ctx, "company context switched",
		zap.String("user_id", user.ID),
		zap.String("company_id", companyID),
	)
	return &dto.TokenResponse{AccessToken: token}, nil
}

func (s *authService) LoginHistory(ctx context.Context, userID string) ([]*domain.LoginHistory, error) {
	if s.logins == nil {
		return []*domain.LoginHistory{}, nil
	}
	return s.logins.ListBySubject(ctx, domain.LoginSubjectUser, userID, loginHistoryLimit)
}

func (s *authService) baseClaims(user *domain.User, email string, memberships []*domain.UserCompany, superAdmin bool) *middleware.Claims {
	companyIDs := make([]string, 0, len(memberships))
	for _, uc := range memberships {
		companyIDs = append(companyIDs, uc.CompanyID)
	}

	claims := &middleware.Claims{
		Email:        email,
		Name:         user.Name,
		Companies:    companyIDs,
		IsSuperAdmin: superAdmin,
	}
	claims.Subject = user.ID
	claims.Issuer = s.config.Issuer
	return claims
}

func (s *authService) recordLogin(ctx context.Context, entry *domain.LoginHistory) {
	if s.logins == nil {
		return
	}
	if err := s.logins.Record(ctx, entry); err != nil {
		logger.Get().WarnContext(ctx, "failed to record admin login", zap.String("subject", entry.SubjectID), zap.Error(err))
	}
}

func applyRole(claims *middleware.Claims, role *domain.Role) {
	if role == nil {
		return
	}
	claims.CurrentRoleID = role.ID
	claims.CurrentRoleLevel = role.Level
	claims.Permissions = role.PermissionSlugs()
}

func superAdminMembership(memberships []*domain.UserCompany) *domain.UserCompany {
	for _, uc := range memberships {
		if uc.IsSuperAdmin() {
			return uc
		}
	}
	return nil
}

func companyName(uc *domain.UserCompany) string {
	if uc.Company == nil {
		return ""
	}
	return uc.Company.Name
}
