package services

import (
	"fmt"

	"github.com/cavemicro/isolate-api/models"
	"gorm.io/gorm"
)

// Referential-integrity checks used to veto destructive operations on
// reference entities. "In use" means referenced by at least one
// non-deleted isolate; for locations, by at least one non-deleted cave.

// isolateReferenceInUse reports whether any non-deleted isolate points at
// the given reference row through the given foreign-key column.
func isolateReferenceInUse(db *gorm.DB, column string, id uint) (bool, error) {
	var count int64
	err := db.Model(&models.Isolate{}).Where(fmt.Sprintf("%s = ?", column), id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// locationInUse reports whether any non-deleted cave belongs to the given
// location. Locations sit one level removed from isolates.
func locationInUse(db *gorm.DB, id uint) (bool, error) {
	var count int64
	err := db.Model(&models.Cave{}).Where("location_id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// isolateInUseCheck builds an InUse hook bound to one isolate FK column.
func isolateInUseCheck(column string) func(db *gorm.DB, id uint) (bool, error) {
	return func(db *gorm.DB, id uint) (bool, error) {
		return isolateReferenceInUse(db, column, id)
	}
}
