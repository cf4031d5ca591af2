package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"product-import-service/internal/models"
	"product-import-service/internal/repository"
)

// GroupOutcome tags what happened to one group name during resolution.
// Conflicts are expected under concurrent imports and absorbed, never
// surfaced as errors.
type GroupOutcome string

const (
	GroupCreated        GroupOutcome = "created"
	GroupAlreadyExisted GroupOutcome = "already_existed"
	GroupFailed         GroupOutcome = "failed"
)

// GroupResolution is the result of resolving all group names of one run.
// IDsByName is keyed by the case-normalized group name.
type GroupResolution struct {
	IDsByName map[string]uuid.UUID
	Outcomes  map[string]GroupOutcome
	Created   int
	Existing  int
}

// GroupResolver derives the distinct group set referenced by accepted rows
// and creates the missing ones idempotently. Group creation is the only
// write in the pipeline with a realistic concurrent-writer risk, so it is
// the only one with conflict-tolerant semantics: batch insert first, then
// per-item fallback where a duplicate-key conflict means "already exists".
type GroupResolver struct {
	catalog repository.CatalogRepositoryInterface
	logger  *logrus.Entry
}

func NewGroupResolver(catalog repository.CatalogRepositoryInterface, logger *logrus.Logger) *GroupResolver {
	return &GroupResolver{
		catalog: catalog,
		logger:  logger.WithField("component", "group-resolver"),
	}
}

// Resolve maps every referenced group name to a group ID, creating missing
// groups. Running it twice with the same input never creates duplicates
// and never errors on the second run.
func (g *GroupResolver) Resolve(ctx context.Context, tenantID, initiatorID string, names []string) (*GroupResolution, error) {
	resolution := &GroupResolution{
		IDsByName: make(map[string]uuid.UUID),
		Outcomes:  make(map[string]GroupOutcome),
	}

	// Distinct, case-normalized set of referenced names; displayName keeps
	// the first spelling seen in the file for newly created groups.
	displayName := make(map[string]string)
	for _, name := range names {
		normalized := models.NormalizeGroupName(name)
		if normalized == "" {
			continue
		}
		if _, ok := displayName[normalized]; !ok {
			displayName[normalized] = name
		}
	}

	existing, err := g.catalog.ListGroups(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	for _, group := range existing {
		resolution.IDsByName[group.NormalizedName] = group.ID
	}

	var missing []*models.ProductGroup
	for normalized, name := range displayName {
		if _, ok := resolution.IDsByName[normalized]; ok {
			resolution.Outcomes[normalized] = GroupAlreadyExisted
			resolution.Existing++
			continue
		}
		missing = append(missing, &models.ProductGroup{
			ID:             uuid.New(),
			TenantID:       tenantID,
			Name:           name,
			NormalizedName: normalized,
			CreatedByID:    initiatorID,
		})
	}

	if len(missing) == 0 {
		return resolution, nil
	}

	// Deterministic insert order keeps batch/fallback behavior reproducible
	sort.Slice(missing, func(i, j int) bool {
		return missing[i].NormalizedName < missing[j].NormalizedName
	})

	if err := g.catalog.CreateGroups(ctx, missing); err == nil {
		for _, group := range missing {
			resolution.IDsByName[group.NormalizedName] = group.ID
			resolution.Outcomes[group.NormalizedName] = GroupCreated
			resolution.Created++
		}
		return resolution, nil
	} else if !repository.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to create groups: %w", err)
	}

	g.logger.WithField("tenantId", tenantID).
		Info("Batch group insert hit a uniqueness conflict, falling back to per-item inserts")

	// A concurrent import created at least one of these names. Insert one
	// at a time, treating an individual conflict as "already exists" and
	// continuing with the rest.
	for _, group := range missing {
		err := g.catalog.CreateGroup(ctx, group)
		switch {
		case err == nil:
			resolution.IDsByName[group.NormalizedName] = group.ID
			resolution.Outcomes[group.NormalizedName] = GroupCreated
			resolution.Created++
		case repository.IsDuplicateKeyError(err):
			winner, lookupErr := g.catalog.GetGroupByName(ctx, tenantID, group.NormalizedName)
			if lookupErr != nil {
				return nil, fmt.Errorf("group %q conflicted but could not be re-read: %w", group.Name, lookupErr)
			}
			resolution.IDsByName[group.NormalizedName] = winner.ID
			resolution.Outcomes[group.NormalizedName] = GroupAlreadyExisted
			resolution.Existing++
		default:
			resolution.Outcomes[group.NormalizedName] = GroupFailed
			return nil, fmt.Errorf("failed to create group %q: %w", group.Name, err)
		}
	}

	return resolution, nil
}
