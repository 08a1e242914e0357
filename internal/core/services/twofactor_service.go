package services

import (
	"context"
	"errors"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/crypto"
	"financepro-backend/internal/pkg/logger"
	"financepro-backend/internal/pkg/password"

	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"
)

const totpIssuer = "FinancePro"

// TwoFactorSetup carries the enrollment material, returned exactly once
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauth_url"`
}

// TwoFactorService handles TOTP enrollment and verification
type TwoFactorService struct {
	usuarioRepo repositories.UsuarioRepository
	cipher      *crypto.Cipher
	auditor     Auditor
}

// NewTwoFactorService creates a new two factor service
func NewTwoFactorService(usuarioRepo repositories.UsuarioRepository, cipher *crypto.Cipher, auditor Auditor) *TwoFactorService {
	return &TwoFactorService{
		usuarioRepo: usuarioRepo,
		cipher:      cipher,
		auditor:     auditor,
	}
}

// Setup generates a TOTP secret for the user and stores it encrypted.
// Two factor stays off until Enable confirms possession with a code.
func (s *TwoFactorService) Setup(ctx context.Context, userID, ip, userAgent string) (*TwoFactorSetup, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFAEnabled {
		return nil, domain.ErrTwoFactorEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(key.Secret())
	if err != nil {
		return nil, err
	}

	user.TwoFASecret = &encrypted
	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    user.ID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "usuario",
		ResourceID:   user.ID,
		Action:       "2fa_setup",
		IPAddress:    ip,
		UserAgent:    userAgent,
		Success:      true,
	})

	logger.Infof("✅ 2FA secret generated for %s", user.Email)

	return &TwoFactorSetup{
		Secret:     key.Secret(),
		OtpauthURL: key.URL(),
	}, nil
}

// Enable turns two factor on after the user proves possession
func (s *TwoFactorService) Enable(ctx context.Context, userID, code, ip, userAgent string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFAEnabled {
		return domain.ErrTwoFactorEnabled
	}
	if user.TwoFASecret == nil {
		return domain.ErrTwoFactorNotEnabled
	}

	valid, err := s.VerifyCode(user, code)
	if err != nil {
		return err
	}
	if !valid {
		s.auditor.Record(ctx, AuditEntry{
			UsuarioID:     user.ID,
			EventType:     models.AuditEventSecurity,
			ResourceType:  "usuario",
			ResourceID:    user.ID,
			Action:        "2fa_enable",
			IPAddress:     ip,
			UserAgent:     userAgent,
			Success:       false,
			FailureReason: "invalid code",
		})
		return domain.ErrTwoFactorInvalid
	}

	user.TwoFAEnabled = true
	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		return err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    user.ID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "usuario",
		ResourceID:   user.ID,
		Action:       "2fa_enable",
		IPAddress:    ip,
		UserAgent:    userAgent,
		Success:      true,
	})

	logger.Infof("✅ 2FA enabled for %s", user.Email)
	return nil
}

// Disable turns two factor off after re-verifying the password
func (s *TwoFactorService) Disable(ctx context.Context, userID, currentPassword, ip, userAgent string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFAEnabled {
		return domain.ErrTwoFactorNotEnabled
	}
	if !password.Verify(currentPassword, user.HashedPassword) {
		s.auditor.Record(ctx, AuditEntry{
			UsuarioID:     user.ID,
			EventType:     models.AuditEventSecurity,
			ResourceType:  "usuario",
			ResourceID:    user.ID,
			Action:        "2fa_disable",
			IPAddress:     ip,
			UserAgent:     userAgent,
			Success:       false,
			FailureReason: "wrong password",
		})
		return domain.ErrInvalidCredentials
	}

	user.TwoFAEnabled = false
	user.TwoFASecret = nil
	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		return err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    user.ID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "usuario",
		ResourceID:   user.ID,
		Action:       "2fa_disable",
		IPAddress:    ip,
		UserAgent:    userAgent,
		Success:      true,
	})

	logger.Infof("✅ 2FA disabled for %s", user.Email)
	return nil
}

// VerifyCode checks a TOTP code against the user's stored secret
func (s *TwoFactorService) VerifyCode(user *models.Usuario, code string) (bool, error) {
	if user.TwoFASecret == nil {
		return false, domain.ErrTwoFactorNotEnabled
	}
	secret, err := s.cipher.Decrypt(*user.TwoFASecret)
	if err != nil {
		return false, err
	}
	return totp.Validate(code, secret), nil
}

func (s *TwoFactorService) getUser(ctx context.Context, userID string) (*models.Usuario, error) {
	user, err := s.usuarioRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
