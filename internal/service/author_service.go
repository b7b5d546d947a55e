package service

import (
	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"

	"go.uber.org/zap"
)

// AuthorService manages the agents/authors shown on generated sites.
type AuthorService struct {
	*EntityService[domain.Author, *domain.Author]
}

func NewAuthorService(collections repository.CollectionAccessor, logger *zap.Logger) *AuthorService {
	return &AuthorService{
		EntityService: NewEntityService[domain.Author, *domain.Author](
			collections,
			repository.AuthorsCollection,
			[]string{"name", "role", "bio"},
			logger,
		),
	}
}
