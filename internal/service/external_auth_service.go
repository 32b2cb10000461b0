package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/dto"
	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/repository"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/encryption"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrInvalidCompany   = errors.New("invalid company or missing API secret")
	ErrRequestExpired   = errors.New("request expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMemberInactive   = errors.New("member account is disabled")
)

// signatureWindow bounds the clock skew accepted on signed requests
const signatureWindow = 5 * time.Minute

// ExternalAuthService logs members in from a company's own system using signed requests
type ExternalAuthService interface {
	// Authenticate verifies the signed request and issues a member token
	Authenticate(ctx context.Context, req *dto.ExternalAuthRequest, client ClientInfo) (*dto.MemberTokenResponse, error)
	// GuestLogin creates an anonymous member of the company and issues a token
	GuestLogin(ctx context.Context, companySlug string, client ClientInfo) (*dto.MemberTokenResponse, error)
	// LinkAccount verifies the signed request and attaches the external identity to the calling guest
	LinkAccount(ctx context.Context, guestID string, req *dto.ExternalAuthRequest) (*dto.MemberTokenResponse, error)
}

// ClientInfo describes the caller of a login endpoint
type ClientInfo struct {
	IP        string
	UserAgent string
}

type externalAuthService struct {
	companies repository.CompanyRepository
	members   MemberService
	cipher    *encryption.Cipher
	now       func() time.Time
}

// NewExternalAuthService creates a new ExternalAuthService
func NewExternalAuthService(companies repository.CompanyRepository, members MemberService, cipher *encryption.Cipher) ExternalAuthService {
	return &externalAuthService{
		companies: companies,
		members:   members,
		cipher:    cipher,
		now:       time.Now,
	}
}

func (s *externalAuthService) Authenticate(ctx context.Context, req *dto.ExternalAuthRequest, client ClientInfo) (*dto.MemberTokenResponse, error) {
	company, err := s.verify(ctx, req)
	if err != nil {
		logger.Get().WarnContext(ctx, "external login rejected",
			zap.String("company_slug", req.CompanySlug), zap.String("ip", client.IP), zap.Error(err))
		return nil, err
	}

	member, err := s.members.FindOrCreateExternal(ctx, company.ID, req.ExternalID, req.Username)
	if err != nil {
		return nil, err
	}

	entry := &domain.LoginHistory{
		SubjectID: member.ID,
		CompanyID: company.ID,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		Success:   member.IsActive,
		Metadata:  map[string]interface{}{"method": "external", "externalId": req.ExternalID},
	}
	if !member.IsActive {
		entry.FailureReason = "member disabled"
		s.members.RecordLogin(ctx, entry)
		return nil, ErrMemberInactive
	}
	s.members.RecordLogin(ctx, entry)

	return s.tokenResponse(member)
}

func (s *externalAuthService) GuestLogin(ctx context.Context, companySlug string, client ClientInfo) (*dto.MemberTokenResponse, error) {
	company, err := s.companies.GetBySlug(ctx, companySlug)
	if err != nil {
		return nil, err
	}
	if company == nil || !company.IsActive {
		return nil, detail(ErrInvalidCompany, "Invalid company")
	}

	member, err := s.members.CreateAnonymous(ctx, company.ID)
	if err != nil {
		return nil, err
	}

	s.members.RecordLogin(ctx, &domain.LoginHistory{
		SubjectID: member.ID,
		CompanyID: company.ID,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		Success:   true,
		Metadata:  map[string]interface{}{"method": "guest"},
	})

	return s.tokenResponse(member)
}

func (s *externalAuthService) LinkAccount(ctx context.Context, guestID string, req *dto.ExternalAuthRequest) (*dto.MemberTokenResponse, error) {
	company, err := s.verify(ctx, req)
	if err != nil {
		return nil, err
	}

	guest, err := s.members.FindByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if guest.CompanyID != company.ID {
		return nil, denied("Guest belongs to another company")
	}

	member, err := s.members.LinkExternalAccount(ctx, guestID, req.ExternalID, req.Username)
	if err != nil {
		return nil, err
	}
	return s.tokenResponse(member)
}

// verify checks company, freshness and signature of a signed request
func (s *externalAuthService) verify(ctx context.Context, req *dto.ExternalAuthRequest) (*domain.Company, error) {
	company, err := s.companies.GetBySlug(ctx, req.CompanySlug)
	if err != nil {
		return nil, err
	}
	if company == nil || !company.IsActive || company.APISecret == "" {
		return nil, detail(ErrInvalidCompany, "Invalid company or missing API Secret")
	}

	// compared in milliseconds; time.Duration overflows on extreme timestamps
	window := signatureWindow.Milliseconds()
	skew := s.now().UnixMilli() - req.Timestamp
	if req.Timestamp <= 0 || skew > window || skew < -window {
		return nil, detail(ErrRequestExpired, "Request expired")
	}

	secret := s.cipher.Decrypt(company.APISecret)
	if !encryption.VerifyHMAC([]byte(secret), SignaturePayload(req.ExternalID, req.CompanySlug, req.Timestamp), req.Signature) {
		return nil, detail(ErrInvalidSignature, "Invalid signature")
	}
	return company, nil
}

func (s *externalAuthService) tokenResponse(member *domain.Member) (*dto.MemberTokenResponse, error) {
	token, err := s.members.IssueToken(member, false)
	if err != nil {
		return nil, err
	}
	return &dto.MemberTokenResponse{
		AccessToken: token,
		Member: dto.MemberSummary{
			ID:       member.ID,
			Username: member.Username,
			Points:   member.PointsBalance,
		},
	}, nil
}

// SignaturePayload is the message a company signs with its API secret
func SignaturePayload(externalID, companySlug string, timestamp int64) string {
	return fmt.Sprintf("%s:%s:%d", externalID, companySlug, timestamp)
}
