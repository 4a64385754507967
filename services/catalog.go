package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cavemicro/isolate-api/models"
	apierrors "github.com/cavemicro/isolate-api/pkg/errors"
	"gorm.io/gorm"
)

// Field describes one request-addressable attribute of a reference kind.
// A field with an empty Column is virtual: it participates in validation
// and hooks but is not stored on the row directly (e.g. cave_location_code,
// which resolves to a location id).
type Field[T any] struct {
	Name     string // request field name, e.g. "organism_type"
	Column   string // DB column backing the field
	Label    string // short label used in conflict messages, e.g. "type"
	Key      bool   // part of the natural key
	Search   bool   // usable in keyword search
	Required bool
	MaxLen   int // maximum value length; 0 means models.MaxNameLength
	Get      func(*T) string
	Set      func(*T, string) error
}

// KeyMode controls how a kind's natural key is checked.
type KeyMode int

const (
	// KeyIndependent checks each key field for uniqueness on its own.
	KeyIndependent KeyMode = iota
	// KeyCombined checks the tuple of key fields for uniqueness.
	KeyCombined
)

// Kind is the descriptor for one reference entity kind. The nine lookup
// kinds differ only by this metadata; all CRUD behavior is shared.
type Kind[T any] struct {
	Name     string // display name, e.g. "Organism"
	Resource string // URL resource segment, e.g. "organism"
	KeyMode  KeyMode
	Fields   []Field[T]

	// BeforeSave runs inside the write transaction before uniqueness
	// checks, with the raw request attributes. Used for FK resolution.
	BeforeSave func(tx *gorm.DB, entity *T, attrs map[string]string) error
	// AfterUpdate runs inside the update transaction after the row is
	// saved. Used to cascade accession recodes to dependent isolates.
	AfterUpdate func(tx *gorm.DB, before, after *T) error
	// InUse vetoes deletion while dependents exist.
	InUse func(db *gorm.DB, id uint) (bool, error)
}

// CatalogService is the uniqueness-enforced CRUD store for one reference
// kind.
type CatalogService[T any] struct {
	db   *gorm.DB
	kind Kind[T]
}

// NewCatalogService creates a catalog service for a kind descriptor.
func NewCatalogService[T any](db *gorm.DB, kind Kind[T]) *CatalogService[T] {
	return &CatalogService[T]{db: db, kind: kind}
}

// KindName returns the kind's display name.
func (s *CatalogService[T]) KindName() string { return s.kind.Name }

// Resource returns the kind's URL resource segment.
func (s *CatalogService[T]) Resource() string { return s.kind.Resource }

// List returns all non-deleted rows in insertion order. An empty slice is
// not an error; the handler maps it to 204.
func (s *CatalogService[T]) List() ([]T, error) {
	var rows []T
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, apierrors.InternalErrorWithCause(fmt.Sprintf("failed to list %ss", strings.ToLower(s.kind.Name)), err)
	}
	return rows, nil
}

// Get returns the row with the given id.
func (s *CatalogService[T]) Get(id uint) (*T, error) {
	var row T
	if err := s.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError(fmt.Sprintf("%s not found", s.kind.Name))
		}
		return nil, apierrors.InternalErrorWithCause(fmt.Sprintf("failed to load %s", strings.ToLower(s.kind.Name)), err)
	}
	return &row, nil
}

// Search performs a case-insensitive substring match over the kind's
// searchable fields. When several search fields are supplied the
// predicates are OR-ed.
func (s *CatalogService[T]) Search(params map[string]string) ([]T, error) {
	query := s.db.Order("id")
	matched := false
	for _, f := range s.kind.Fields {
		if !f.Search || f.Column == "" {
			continue
		}
		pattern, ok := params[f.Name]
		if !ok || pattern == "" {
			continue
		}
		cond := fmt.Sprintf("LOWER(%s) LIKE ?", f.Column)
		like := "%" + strings.ToLower(pattern) + "%"
		if !matched {
			query = query.Where(cond, like)
		} else {
			query = query.Or(cond, like)
		}
		matched = true
	}
	if !matched {
		return nil, apierrors.ValidationError("no search field supplied")
	}
	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, apierrors.InternalErrorWithCause(fmt.Sprintf("failed to search %ss", strings.ToLower(s.kind.Name)), err)
	}
	return rows, nil
}

// Create validates required fields, checks natural-key uniqueness, and
// persists a new row.
func (s *CatalogService[T]) Create(attrs map[string]string) (*T, error) {
	for _, f := range s.kind.Fields {
		if f.Required && attrs[f.Name] == "" {
			return nil, apierrors.ValidationError("missing required fields")
		}
	}

	var entity T
	if err := s.apply(&entity, attrs); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if s.kind.BeforeSave != nil {
			if err := s.kind.BeforeSave(tx, &entity, attrs); err != nil {
				return err
			}
		}
		if err := s.checkUnique(tx, &entity, 0); err != nil {
			return err
		}
		if err := tx.Create(&entity).Error; err != nil {
			return apierrors.InternalErrorWithCause(fmt.Sprintf("failed to create %s", strings.ToLower(s.kind.Name)), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update applies the supplied attributes to an existing row, re-running
// the uniqueness check with the row itself excluded. Cascade hooks run in
// the same transaction, so a failed recode rolls the rename back too.
func (s *CatalogService[T]) Update(id uint, attrs map[string]string) (*T, error) {
	entity, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	before := *entity

	supplied := false
	for _, f := range s.kind.Fields {
		if _, ok := attrs[f.Name]; ok && attrs[f.Name] != "" {
			supplied = true
			break
		}
	}
	if !supplied {
		return nil, apierrors.ValidationError("no updatable field supplied")
	}

	if err := s.apply(entity, attrs); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if s.kind.BeforeSave != nil {
			if err := s.kind.BeforeSave(tx, entity, attrs); err != nil {
				return err
			}
		}
		if err := s.checkUnique(tx, entity, id); err != nil {
			return err
		}
		if err := tx.Save(entity).Error; err != nil {
			return apierrors.InternalErrorWithCause(fmt.Sprintf("failed to update %s", strings.ToLower(s.kind.Name)), err)
		}
		if s.kind.AfterUpdate != nil {
			if err := s.kind.AfterUpdate(tx, &before, entity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete tombstones a row unless the integrity guard vetoes it.
func (s *CatalogService[T]) Delete(id uint) error {
	entity, err := s.Get(id)
	if err != nil {
		return err
	}
	if s.kind.InUse != nil {
		inUse, err := s.kind.InUse(s.db, id)
		if err != nil {
			return apierrors.InternalErrorWithCause(fmt.Sprintf("failed to check %s usage", strings.ToLower(s.kind.Name)), err)
		}
		if inUse {
			return apierrors.ValidationError(fmt.Sprintf("%s is in use", s.kind.Name))
		}
	}
	if err := s.db.Delete(entity).Error; err != nil {
		return apierrors.InternalErrorWithCause(fmt.Sprintf("failed to delete %s", strings.ToLower(s.kind.Name)), err)
	}
	return nil
}

// apply copies the supplied attributes onto the entity through the field
// setters, enforcing per-field length limits first. Virtual fields (no
// setter) are length-checked too since hooks consume them.
func (s *CatalogService[T]) apply(entity *T, attrs map[string]string) error {
	for _, f := range s.kind.Fields {
		value, ok := attrs[f.Name]
		if !ok || value == "" {
			continue
		}
		limit := f.MaxLen
		if limit == 0 {
			limit = models.MaxNameLength
		}
		if len(value) > limit {
			return apierrors.ValidationError(fmt.Sprintf("%s must be at most %d characters", f.Name, limit))
		}
		if f.Set == nil {
			continue
		}
		if err := f.Set(entity, value); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique enforces natural-key uniqueness among non-deleted rows,
// excluding excludeID when updating. Colliding field labels are reported
// together, joined with "and".
func (s *CatalogService[T]) checkUnique(tx *gorm.DB, entity *T, excludeID uint) error {
	var keys []Field[T]
	for _, f := range s.kind.Fields {
		if f.Key {
			keys = append(keys, f)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	var collided []string
	var model T
	switch s.kind.KeyMode {
	case KeyCombined:
		query := tx.Model(&model)
		for _, f := range keys {
			query = query.Where(fmt.Sprintf("%s = ?", f.Column), f.Get(entity))
		}
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return apierrors.InternalErrorWithCause("uniqueness check failed", err)
		}
		if count > 0 {
			for _, f := range keys {
				collided = append(collided, f.Label)
			}
		}
	default:
		for _, f := range keys {
			query := tx.Model(&model).Where(fmt.Sprintf("%s = ?", f.Column), f.Get(entity))
			if excludeID != 0 {
				query = query.Where("id <> ?", excludeID)
			}
			var count int64
			if err := query.Count(&count).Error; err != nil {
				return apierrors.InternalErrorWithCause("uniqueness check failed", err)
			}
			if count > 0 {
				collided = append(collided, f.Label)
			}
		}
	}

	if len(collided) == 0 {
		return nil
	}
	verb := "already exists"
	if len(collided) > 1 {
		verb = "already exist"
	}
	return apierrors.ConflictError(fmt.Sprintf("%s %s", strings.Join(collided, " and "), verb))
}
