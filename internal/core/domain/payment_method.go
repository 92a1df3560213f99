package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethodType classifies catalog entries and carries their capability
// flags.
type PaymentMethodType string

const (
	MethodCreditCard    PaymentMethodType = "CREDIT_CARD"
	MethodDebitCard     PaymentMethodType = "DEBIT_CARD"
	MethodDigitalWallet PaymentMethodType = "DIGITAL_WALLET"
	MethodBankTransfer  PaymentMethodType = "BANK_TRANSFER"
)

func ValidPaymentMethodType(t PaymentMethodType) bool {
	switch t {
	case MethodCreditCard, MethodDebitCard, MethodDigitalWallet, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// SupportsRecurring reports whether the type can back recurring charges.
func (t PaymentMethodType) SupportsRecurring() bool {
	return t == MethodCreditCard || t == MethodDebitCard || t == MethodDigitalWallet
}

// RequiresCardDetails reports whether processing needs a card token and CVV.
func (t PaymentMethodType) RequiresCardDetails() bool {
	return t == MethodCreditCard || t == MethodDebitCard
}

// SupportsRefund reports whether refunds can be routed back through this type.
func (t PaymentMethodType) SupportsRefund() bool {
	return t != MethodBankTransfer
}

// PaymentMethod is a read-mostly catalog entry describing an available way to
// pay. Transactions reference it by id only.
type PaymentMethod struct {
	ID           uuid.UUID
	Name         string
	Type         PaymentMethodType
	ProviderCode string
	Active       bool
	Description  string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPaymentMethod creates an active catalog entry.
func NewPaymentMethod(name string, methodType PaymentMethodType, providerCode string) (*PaymentMethod, error) {
	if name == "" {
		return nil, NewMissingRequiredFieldError("payment method name")
	}
	if providerCode == "" {
		return nil, NewMissingRequiredFieldError("provider code")
	}
	if !ValidPaymentMethodType(methodType) {
		return nil, NewValidationError("unknown payment method type: " + string(methodType))
	}
	now := time.Now().UTC()
	return &PaymentMethod{
		ID:           uuid.New(),
		Name:         name,
		Type:         methodType,
		ProviderCode: providerCode,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (m *PaymentMethod) Activate() {
	m.Active = true
	m.UpdatedAt = time.Now().UTC()
}

func (m *PaymentMethod) Deactivate() {
	m.Active = false
	m.UpdatedAt = time.Now().UTC()
}

// UserPaymentMethod is a user's saved instrument. It references a catalog
// entry by id (weak reference) and stores only masked, non-sensitive details;
// the real instrument lives behind the provider's token.
type UserPaymentMethod struct {
	ID              uuid.UUID
	ExternalUserID  uuid.UUID
	PaymentMethodID uuid.UUID
	ProviderToken   string
	MaskedDetails   string
	IsDefault       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUserPaymentMethod saves an instrument for a user.
func NewUserPaymentMethod(
	externalUserID, paymentMethodID uuid.UUID,
	providerToken, maskedDetails string,
	isDefault bool,
) (*UserPaymentMethod, error) {
	if externalUserID == uuid.Nil {
		return nil, NewMissingRequiredFieldError("external user ID")
	}
	if paymentMethodID == uuid.Nil {
		return nil, NewMissingRequiredFieldError("payment method ID")
	}
	if providerToken == "" {
		return nil, NewMissingRequiredFieldError("provider token")
	}
	now := time.Now().UTC()
	return &UserPaymentMethod{
		ID:              uuid.New(),
		ExternalUserID:  externalUserID,
		PaymentMethodID: paymentMethodID,
		ProviderToken:   providerToken,
		MaskedDetails:   maskedDetails,
		IsDefault:       isDefault,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
