package service

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/model"
	"contractbuilder/pkg/pagination"
	"contractbuilder/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActorContext identifies the authenticated caller of an operation.
type ActorContext struct {
	UserID uuid.UUID
	Role   string
}

func (a ActorContext) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func (a ActorContext) IsProvider() bool {
	return a.Role == model.RoleProvider
}

func requireAdmin(actor ActorContext) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("administrator access required")
	}
	return nil
}

func requireProvider(actor ActorContext) error {
	if !actor.IsProvider() {
		return apperror.Forbidden("provider access required")
	}
	return nil
}

// validate runs struct validation and converts failures into a field-level ValidationError.
func validate(req interface{}) error {
	if fields := validator.ValidateStruct(req); len(fields) > 0 {
		return apperror.Validation("validation failed", fields)
	}
	return nil
}

func parseID(id, entity string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.NotFound(entity + " not found")
	}
	return parsed, nil
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error and wraps anything else.
func notFoundOr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity + " not found")
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}

const dateLayout = "2006-01-02"

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func normalizePage(page, limit int) (int, int) {
	p := pagination.New(page, limit)
	return p.Page, p.Limit
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
