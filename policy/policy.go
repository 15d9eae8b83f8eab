// Package policy is the single source of truth for issue visibility and
// mutation rules. Every handler that reads or writes an issue evaluates the
// policy once and acts only on the returned decision, instead of re-deriving
// role checks inline.
package policy

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/VicegerentPrince/Urban-Eye/models"
)

// Identity is the authenticated caller, resolved by the auth middleware and
// passed explicitly into every policy evaluation.
type Identity struct {
	ID   primitive.ObjectID
	Role models.Role
}

// Field names an issue field subject to mutation rules.
type Field string

const (
	FieldTitle               Field = "title"
	FieldDescription         Field = "description"
	FieldCategory            Field = "category"
	FieldPriority            Field = "priority"
	FieldCoordinates         Field = "coordinates"
	FieldLocationDescription Field = "locationDescription"
	FieldAttachments         Field = "attachments"
	FieldStatus              Field = "status"
	FieldAssignee            Field = "assignee"
)

// Decision is the outcome of evaluating the policy for one caller against
// one issue.
type Decision struct {
	Visible bool
	Mutable map[Field]bool
}

// CanMutate reports whether the caller may change the given field.
func (d Decision) CanMutate(f Field) bool {
	return d.Visible && d.Mutable[f]
}

// Evaluate computes visibility and the mutable field set for caller against
// issue. The reporter field is never mutable for anyone.
func Evaluate(caller Identity, issue models.Issue) Decision {
	isReporter := caller.ID == issue.Reporter
	resolved := issue.Status == models.Resolved

	mutable := make(map[Field]bool)

	switch caller.Role {
	case models.Citizen:
		if !isReporter {
			return Decision{Visible: false, Mutable: mutable}
		}
		if !resolved {
			mutable[FieldTitle] = true
			mutable[FieldDescription] = true
			mutable[FieldCategory] = true
			mutable[FieldPriority] = true
			mutable[FieldCoordinates] = true
			mutable[FieldLocationDescription] = true
			mutable[FieldAttachments] = true
		}
		return Decision{Visible: true, Mutable: mutable}

	case models.Official:
		mutable[FieldTitle] = true
		mutable[FieldDescription] = true
		mutable[FieldLocationDescription] = true
		mutable[FieldAttachments] = true
		mutable[FieldStatus] = true
		mutable[FieldAssignee] = true
		// Resolved issues lock category and priority for everyone but admins.
		if !resolved {
			mutable[FieldCategory] = true
			mutable[FieldPriority] = true
		}
		// Coordinates stay with the original reporter until resolution.
		if isReporter && !resolved {
			mutable[FieldCoordinates] = true
		}
		return Decision{Visible: true, Mutable: mutable}

	case models.Admin:
		mutable[FieldTitle] = true
		mutable[FieldDescription] = true
		mutable[FieldCategory] = true
		mutable[FieldPriority] = true
		mutable[FieldLocationDescription] = true
		mutable[FieldAttachments] = true
		mutable[FieldStatus] = true
		mutable[FieldAssignee] = true
		if isReporter && !resolved {
			mutable[FieldCoordinates] = true
		}
		return Decision{Visible: true, Mutable: mutable}
	}

	return Decision{Visible: false, Mutable: mutable}
}

// StatusAfterAssign returns the status an issue takes when an update sets its
// assignee. Assigning a pending issue promotes it to in-progress in the same
// update, unless that update carries an explicit status of its own; any other
// starting status is left alone. The second return reports whether the status
// changed.
func StatusAfterAssign(current models.IssueStatus, explicitStatus bool) (models.IssueStatus, bool) {
	if current == models.Pending && !explicitStatus {
		return models.InProgress, true
	}
	return current, false
}

// CanDelete reports whether the caller may delete the issue: admins always,
// the original reporter only while the issue is still pending.
func CanDelete(caller Identity, issue models.Issue) bool {
	if caller.Role == models.Admin {
		return true
	}
	return caller.ID == issue.Reporter && issue.Status == models.Pending
}

// ListFilter returns the visibility filter applied to listing and stats
// queries. Citizens only ever see their own reports.
func ListFilter(caller Identity) bson.M {
	if caller.Role == models.Citizen {
		return bson.M{"reporter": caller.ID}
	}
	return bson.M{}
}
