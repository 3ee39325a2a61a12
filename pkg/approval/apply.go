package approval

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/sequoia/pkg/tracing"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// apply performs the approved mutation against the record store. Dispatch is
// an exhaustive type switch over the decoded payload; unknown payloads cannot
// reach here because decoding fails at the boundary.
func (c *Coordinator) apply(ctx context.Context, payload models.ChangePayload, actorID string) error {
	ctx, span := tracing.StartSpan(ctx, "approval.Coordinator.apply")
	defer span.End()

	switch p := payload.(type) {
	case models.CreatePersonChange:
		return c.applyCreatePerson(ctx, p, actorID)
	case models.UpdatePersonChange:
		return c.applyUpdatePerson(ctx, p)
	case models.AddRelationshipChange:
		return c.applyAddRelationship(ctx, p, actorID)
	case models.RemoveRelationshipChange:
		return c.applyRemoveRelationship(ctx, p, actorID)
	case models.UpdateFamilyNameChange:
		return c.applyUpdateFamilyName(ctx, p, actorID)
	default:
		c.logger.WithContext(ctx).WithFields(map[string]any{"change_type": payload.Kind()}).Warn("Skipping change with unhandled payload type")
		return nil
	}
}

func (c *Coordinator) applyCreatePerson(ctx context.Context, p models.CreatePersonChange, actorID string) error {
	person := &models.Person{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		MiddleName:  p.MiddleName,
		MaidenName:  p.MaidenName,
		Gender:      p.Gender,
		BirthDate:   p.BirthDate,
		DeathDate:   p.DeathDate,
		IsLiving:    p.IsLiving,
		IsPrivate:   p.IsPrivate,
		CreatedByID: &actorID,
	}

	created, err := c.persons.Create(ctx, person)
	if err != nil {
		return err
	}

	c.projector.ProjectPerson(ctx, created)
	c.emitter.EmitPersonCreated(ctx, created, actorID)
	return nil
}

func (c *Coordinator) applyUpdatePerson(ctx context.Context, p models.UpdatePersonChange) error {
	if p.IsClaim() {
		if err := c.persons.LinkUserAccount(ctx, p.PersonID, *p.ClaimUserID); err != nil {
			return err
		}
		c.emitter.EmitPersonUpdated(ctx, p.PersonID, *p.ClaimUserID)
		c.emitter.NotifyProfileClaimed(ctx, *p.ClaimUserID, p.PersonID)
		return nil
	}

	if err := c.persons.Update(ctx, p.PersonID, p.Fields); err != nil {
		return err
	}

	c.emitter.EmitPersonUpdated(ctx, p.PersonID, "")
	return nil
}

func (c *Coordinator) applyAddRelationship(ctx context.Context, p models.AddRelationshipChange, actorID string) error {
	rel, err := relationshipFromRequest(p.CreateRelationshipRequest, actorID)
	if err != nil {
		return err
	}

	created, err := c.relationships.Create(ctx, rel)
	if err != nil {
		return err
	}

	c.projector.ProjectRelationship(ctx, created)
	c.emitter.EmitRelationshipCreated(ctx, created, actorID)
	return nil
}

func (c *Coordinator) applyRemoveRelationship(ctx context.Context, p models.RemoveRelationshipChange, actorID string) error {
	if err := c.relationships.Delete(ctx, p.RelationshipID); err != nil {
		return err
	}

	c.projector.RemoveRelationship(ctx, p.RelationshipID)
	c.emitter.EmitRelationshipRemoved(ctx, p.RelationshipID, actorID)
	return nil
}

func (c *Coordinator) applyUpdateFamilyName(ctx context.Context, p models.UpdateFamilyNameChange, actorID string) error {
	family := &models.Family{
		RootPersonID: p.RootPersonID,
		Name:         p.Name,
		Description:  p.Description,
		CreatedByID:  actorID,
	}

	if _, err := c.families.Upsert(ctx, family); err != nil {
		return err
	}

	c.emitter.EmitFamilyUpdated(ctx, p.RootPersonID, actorID)
	return nil
}

// relationshipFromRequest builds the correct edge shape for the declared
// type: parental kinds take a parent/child pair, spouse takes two spouses.
func relationshipFromRequest(req models.CreateRelationshipRequest, actorID string) (*models.Relationship, error) {
	if !req.RelationshipType.IsValid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "unknown relationship type")
	}

	rel := &models.Relationship{
		RelationshipType: req.RelationshipType,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		CreatedByID:      &actorID,
	}

	switch {
	case req.RelationshipType.IsParental():
		if req.ParentID == nil || req.ChildID == nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "parental relationships require parent_id and child_id")
		}
		if *req.ParentID == *req.ChildID {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "a person cannot be their own parent")
		}
		rel.ParentID = req.ParentID
		rel.ChildID = req.ChildID
	case req.RelationshipType.IsSpousal():
		if req.Spouse1ID == nil || req.Spouse2ID == nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "spouse relationships require spouse1_id and spouse2_id")
		}
		if *req.Spouse1ID == *req.Spouse2ID {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "a person cannot be married to themselves")
		}
		rel.Spouse1ID = req.Spouse1ID
		rel.Spouse2ID = req.Spouse2ID
	}

	return rel, nil
}

// validateReferences checks every record a payload names exists before the
// change is accepted.
func (c *Coordinator) validateReferences(ctx context.Context, payload models.ChangePayload) error {
	var ids []string
	switch p := payload.(type) {
	case models.UpdatePersonChange:
		ids = append(ids, p.PersonID)
	case models.RemoveRelationshipChange:
		if _, err := c.relationships.Get(ctx, p.RelationshipID); err != nil {
			if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound {
				return httperror.NewHTTPError(http.StatusBadRequest, "unknown relationship id: "+p.RelationshipID)
			}
			return err
		}
		return nil
	case models.AddRelationshipChange:
		for _, id := range []*string{p.ParentID, p.ChildID, p.Spouse1ID, p.Spouse2ID} {
			if id != nil && *id != "" {
				ids = append(ids, *id)
			}
		}
	case models.UpdateFamilyNameChange:
		ids = append(ids, p.RootPersonID)
	}

	if len(ids) == 0 {
		return nil
	}

	missing, err := c.persons.Exists(ctx, ids...)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown person ids: "+strings.Join(missing, ", "))
	}

	return nil
}
