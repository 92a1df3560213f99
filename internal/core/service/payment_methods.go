package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// PaymentMethodService serves the read-mostly payment-method catalog and
// saves users' tokenized instruments.
type PaymentMethodService struct {
	catalog     ports.PaymentMethodRepository
	userMethods ports.UserPaymentMethodRepository
	provider    ports.PaymentProviderGateway
	logger      *slog.Logger
}

func NewPaymentMethodService(
	catalog ports.PaymentMethodRepository,
	userMethods ports.UserPaymentMethodRepository,
	provider ports.PaymentProviderGateway,
	logger *slog.Logger,
) *PaymentMethodService {
	return &PaymentMethodService{
		catalog:     catalog,
		userMethods: userMethods,
		provider:    provider,
		logger:      logger,
	}
}

func (s *PaymentMethodService) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	return s.catalog.FindByID(ctx, id)
}

func (s *PaymentMethodService) ListActivePaymentMethods(ctx context.Context) ([]*domain.PaymentMethod, error) {
	return s.catalog.FindAllActive(ctx)
}

func (s *PaymentMethodService) ListPaymentMethodsByType(ctx context.Context, methodType domain.PaymentMethodType) ([]*domain.PaymentMethod, error) {
	if !domain.ValidPaymentMethodType(methodType) {
		return nil, domain.NewValidationError("unknown payment method type: " + string(methodType))
	}
	return s.catalog.FindByType(ctx, methodType)
}

func (s *PaymentMethodService) ListUserPaymentMethods(ctx context.Context, userID uuid.UUID) ([]*domain.UserPaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, domain.NewMissingRequiredFieldError("external user ID")
	}
	return s.userMethods.FindByExternalUserID(ctx, userID)
}

// SaveUserPaymentMethod validates the provider token and stores the
// instrument for the user.
func (s *PaymentMethodService) SaveUserPaymentMethod(ctx context.Context, cmd SaveUserPaymentMethodCommand) (*domain.UserPaymentMethod, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	method, err := s.catalog.FindByID(ctx, cmd.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if !method.Active {
		return nil, domain.NewPaymentMethodNotActiveError(method.ID)
	}

	valid, err := s.provider.ValidateToken(ctx, cmd.ProviderToken)
	if err != nil {
		return nil, domain.NewProviderError("failed to validate provider token", err)
	}
	if !valid {
		return nil, domain.NewValidationError("provider token is invalid")
	}

	upm, err := domain.NewUserPaymentMethod(
		cmd.ExternalUserID,
		cmd.PaymentMethodID,
		cmd.ProviderToken,
		cmd.MaskedDetails,
		cmd.IsDefault,
	)
	if err != nil {
		return nil, err
	}

	if err := s.userMethods.Save(ctx, upm); err != nil {
		return nil, err
	}

	s.logger.Info("user payment method saved",
		"user_id", upm.ExternalUserID,
		"payment_method_id", upm.PaymentMethodID,
	)
	return upm, nil
}
