package model

import "marketplace-payments/internal/domain"

type PayerType string

const (
	PayerClient PayerType = "client"
	PayerEscort PayerType = "escort"
	PayerAgency PayerType = "agency"
)

// PayerRef identifies exactly one paying party. The type discriminates which
// table the ID points into, so a payment can never be attributed to more than
// one account kind.
type PayerRef struct {
	Type PayerType `json:"type"`
	ID   string    `json:"id"`
}

func (p PayerRef) Validate() error {
	switch p.Type {
	case PayerClient, PayerEscort, PayerAgency:
	default:
		return domain.ErrInvalidArgument
	}
	if p.ID == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

func (p PayerRef) Equal(o PayerRef) bool {
	return p.Type == o.Type && p.ID == o.ID
}
