package service

import (
	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"

	"go.uber.org/zap"
)

// PropertyService manages listings. Listings are soft-deleted and their slug
// must stay unique among active records in the partition.
type PropertyService struct {
	*EntityService[domain.Property, *domain.Property]
}

func NewPropertyService(collections repository.CollectionAccessor, logger *zap.Logger) *PropertyService {
	return &PropertyService{
		EntityService: NewEntityService[domain.Property, *domain.Property](
			collections,
			repository.PropertiesCollection,
			[]string{"name", "description", "location"},
			logger,
		),
	}
}
