package service

import (
	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"

	"go.uber.org/zap"
)

// LeadService manages inbound inquiries. Free-text search covers the contact
// and message fields.
type LeadService struct {
	*EntityService[domain.Lead, *domain.Lead]
}

func NewLeadService(collections repository.CollectionAccessor, logger *zap.Logger) *LeadService {
	return &LeadService{
		EntityService: NewEntityService[domain.Lead, *domain.Lead](
			collections,
			repository.LeadsCollection,
			[]string{"name", "email", "phone", "company", "subject", "message"},
			logger,
		),
	}
}
