package family

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/tracing"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// FamilyStore persists registered family records
type FamilyStore interface {
	Upsert(ctx context.Context, family *models.Family) (*models.Family, error)
	Get(ctx context.Context, rootPersonID string) (*models.Family, error)
	ListAll(ctx context.Context) ([]models.Family, error)
	RootIDs(ctx context.Context) (map[string]struct{}, error)
	UpdateName(ctx context.Context, rootPersonID string, name string) error
}

// Service exposes family registration and multi-family overviews
type Service struct {
	persons       kinship.PersonLister
	relationships kinship.RelationshipLister
	families      FamilyStore
	logger        ectologger.Logger
	maxDepth      int
}

// NewService creates a family service
func NewService(persons kinship.PersonLister, relationships kinship.RelationshipLister, families FamilyStore, logger ectologger.Logger, maxDepth int) *Service {
	if maxDepth < 1 {
		maxDepth = models.DefaultTreeMaxDepth
	}
	return &Service{
		persons:       persons,
		relationships: relationships,
		families:      families,
		logger:        logger,
		maxDepth:      maxDepth,
	}
}

// Register registers or renames the family rooted at the given person
func (s *Service) Register(ctx context.Context, req models.UpsertFamilyRequest, createdByID string) (*models.Family, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Service.Register")
	defer span.End()

	return s.families.Upsert(ctx, &models.Family{
		RootPersonID: req.RootPersonID,
		Name:         req.Name,
		Description:  req.Description,
		CreatedByID:  createdByID,
	})
}

// Rename changes the display name of an already-registered family. Renaming
// an unregistered root is a not-found error, unlike Register which upserts.
func (s *Service) Rename(ctx context.Context, rootPersonID string, name string) (*models.Family, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Service.Rename")
	defer span.End()

	if err := s.families.UpdateName(ctx, rootPersonID, name); err != nil {
		return nil, err
	}
	return s.families.Get(ctx, rootPersonID)
}

// Get retrieves the registered family rooted at a person
func (s *Service) Get(ctx context.Context, rootPersonID string) (*models.Family, error) {
	return s.families.Get(ctx, rootPersonID)
}

// List retrieves all registered families
func (s *Service) List(ctx context.Context) ([]models.Family, error) {
	return s.families.ListAll(ctx)
}

// Groups returns founder-surname family groups for multi-family overviews
func (s *Service) Groups(ctx context.Context) ([]models.FamilyGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Service.Groups")
	defer span.End()

	persons, err := s.persons.ListAll(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to load persons")
		return nil, err
	}

	relationships, err := s.relationships.ListAll(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to load relationships")
		return nil, err
	}

	graph := kinship.NewGraph(persons, relationships)
	return GroupFounders(graph, persons, s.maxDepth), nil
}
