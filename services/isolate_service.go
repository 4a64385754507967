package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cavemicro/isolate-api/accession"
	"github.com/cavemicro/isolate-api/models"
	apierrors "github.com/cavemicro/isolate-api/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// IsolateService orchestrates the isolate lifecycle: natural-key
// resolution, two-phase creation with accession derivation, partial
// updates, batch tombstoning, and the recode cascades triggered by
// reference-entity renames.
type IsolateService struct {
	db *gorm.DB
}

// NewIsolateService creates a new isolate service.
func NewIsolateService(db *gorm.DB) *IsolateService {
	return &IsolateService{db: db}
}

// isolatePreloads attaches every owning reference relation.
func isolatePreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Organism").
		Preload("Sample").
		Preload("Host").
		Preload("Method").
		Preload("Cave").
		Preload("Cave.Location").
		Preload("SamplingPoint").
		Preload("Institution").
		Preload("Collection")
}

// List returns non-deleted isolates whose access level is within the
// caller's visible tiers. A nil tier list means unrestricted (Admin).
func (s *IsolateService) List(visible []models.AccessLevel) ([]models.Isolate, error) {
	query := isolatePreloads(s.db).Order("id")
	if visible != nil {
		query = query.Where("access_level IN ?", visible)
	}
	var isolates []models.Isolate
	if err := query.Find(&isolates).Error; err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to list isolates", err)
	}
	return isolates, nil
}

// Get returns a single isolate with its references loaded.
func (s *IsolateService) Get(id uint) (*models.Isolate, error) {
	var isolate models.Isolate
	if err := isolatePreloads(s.db).First(&isolate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("Isolate not found")
		}
		return nil, apierrors.InternalErrorWithCause("failed to load isolate", err)
	}
	return &isolate, nil
}

// Search performs a case-insensitive substring match over genus, species,
// and accession number, OR-ed when several are supplied.
func (s *IsolateService) Search(params map[string]string, visible []models.AccessLevel) ([]models.Isolate, error) {
	fields := []struct {
		name   string
		column string
	}{
		{"genus", "genus"},
		{"species", "species"},
		{"accession_no", "accession_no"},
	}

	query := isolatePreloads(s.db).Order("id")
	if visible != nil {
		query = query.Where("access_level IN ?", visible)
	}
	matched := false
	for _, f := range fields {
		pattern := params[f.name]
		if pattern == "" {
			continue
		}
		cond := fmt.Sprintf("LOWER(%s) LIKE ?", f.column)
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
	var isolates []models.Isolate
	if err := query.Find(&isolates).Error; err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to search isolates", err)
	}
	return isolates, nil
}

// resolvedRefs holds the reference rows looked up during create.
type resolvedRefs struct {
	organism      models.Organism
	sample        models.Sample
	host          models.Host
	method        models.Method
	cave          models.Cave
	samplingPoint models.SamplingPoint
	institution   models.Institution
	collection    models.Collection
}

// Create resolves every natural key concurrently, persists the isolate,
// then derives code and accession number in a second write once the row
// id is known.
func (s *IsolateService) Create(req *models.CreateIsolateRequest) (*models.Isolate, error) {
	for _, v := range req.RequiredFields() {
		if v == "" {
			return nil, apierrors.ValidationError("missing required fields")
		}
	}
	level := models.AccessLevel(req.AccessLevel)
	if !level.Valid() {
		return nil, apierrors.ValidationError("invalid access level")
	}

	refs, err := s.resolveAll(req)
	if err != nil {
		return nil, err
	}

	isolate := models.Isolate{
		Genus:           req.Genus,
		Species:         req.Species,
		IsolateDomain:   req.IsolateDomain,
		IsolatePhylum:   req.IsolatePhylum,
		IsolateClass:    req.IsolateClass,
		IsolateOrder:    req.IsolateOrder,
		IsolateFamily:   req.IsolateFamily,
		OrganismID:      refs.organism.ID,
		SampleID:        refs.sample.ID,
		HostID:          refs.host.ID,
		MethodID:        refs.method.ID,
		CaveID:          refs.cave.ID,
		SamplingPointID: refs.samplingPoint.ID,
		InstitutionID:   refs.institution.ID,
		CollectionID:    refs.collection.ID,
		AccessLevel:     level,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Phase one: persist so the row id exists.
		if err := tx.Create(&isolate).Error; err != nil {
			return apierrors.InternalErrorWithCause("failed to create isolate", err)
		}
		// Phase two: derive code and accession now that the id is known.
		code := accession.Code(refs.organism.Value, int(isolate.ID))
		accessionNo := accession.Format(refs.collection.CollectionCode, refs.institution.InstitutionCode, code)
		updates := map[string]interface{}{
			"code":         code,
			"accession_no": accessionNo,
		}
		if err := tx.Model(&isolate).Updates(updates).Error; err != nil {
			return apierrors.InternalErrorWithCause("failed to derive accession", err)
		}
		isolate.Code = &code
		isolate.AccessionNo = &accessionNo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(isolate.ID)
}

// resolveAll looks up every reference row concurrently and reports the
// unresolved entity names in a fixed order.
func (s *IsolateService) resolveAll(req *models.CreateIsolateRequest) (*resolvedRefs, error) {
	refs := &resolvedRefs{}
	lookups := []struct {
		entity string
		run    func() error
	}{
		{"Organism", func() error {
			return s.db.Where("organism_type = ?", req.OrganismType).First(&refs.organism).Error
		}},
		{"Sample", func() error {
			return s.db.Where("sample_type = ?", req.SampleType).First(&refs.sample).Error
		}},
		{"Host", func() error {
			return s.db.Where("host_species = ?", req.HostSpecies).First(&refs.host).Error
		}},
		{"Method", func() error {
			return s.db.Where("method = ?", req.Method).First(&refs.method).Error
		}},
		{"Cave", func() error {
			return s.db.Where("cave_name = ?", req.CaveName).First(&refs.cave).Error
		}},
		{"Sampling Point", func() error {
			return s.db.Where("description = ?", req.Description).First(&refs.samplingPoint).Error
		}},
		{"Institution", func() error {
			return s.db.Where("institution_name = ?", req.InstitutionName).First(&refs.institution).Error
		}},
		{"Collection", func() error {
			return s.db.Where("collection_name = ?", req.CollectionName).First(&refs.collection).Error
		}},
	}

	unresolved := make([]bool, len(lookups))
	var group errgroup.Group
	for i, l := range lookups {
		i, l := i, l
		group.Go(func() error {
			err := l.run()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unresolved[i] = true
				return nil
			}
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to resolve references", err)
	}

	var missing []string
	for i, l := range lookups {
		if unresolved[i] {
			missing = append(missing, l.entity)
		}
	}
	if len(missing) > 0 {
		return nil, apierrors.NotFoundError(fmt.Sprintf("%s not found", strings.Join(missing, ", ")))
	}
	return refs, nil
}

// Update applies a partial update. Re-resolvable fields are looked up
// individually; an organism change recomputes code and accession from
// scratch. All changes land in one update statement; the response is a
// bare acknowledgment.
func (s *IsolateService) Update(id uint, req *models.UpdateIsolateRequest) error {
	if req.Empty() {
		return apierrors.ValidationError("no updatable field supplied")
	}

	isolate, err := s.Get(id)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	setIf := func(column string, value *string) {
		if value != nil {
			updates[column] = *value
		}
	}
	setIf("genus", req.Genus)
	setIf("species", req.Species)
	setIf("isolate_domain", req.IsolateDomain)
	setIf("isolate_phylum", req.IsolatePhylum)
	setIf("isolate_class", req.IsolateClass)
	setIf("isolate_order", req.IsolateOrder)
	setIf("isolate_family", req.IsolateFamily)

	if req.AccessLevel != nil {
		level := models.AccessLevel(*req.AccessLevel)
		if !level.Valid() {
			return apierrors.ValidationError("invalid access level")
		}
		updates["access_level"] = level
	}

	if req.SampleType != nil {
		var sample models.Sample
		if err := s.resolveRef(&sample, "sample_type = ?", *req.SampleType, "Sample"); err != nil {
			return err
		}
		updates["sample_id"] = sample.ID
	}
	if req.HostSpecies != nil {
		var host models.Host
		if err := s.resolveRef(&host, "host_species = ?", *req.HostSpecies, "Host"); err != nil {
			return err
		}
		updates["host_id"] = host.ID
	}
	if req.Method != nil {
		var method models.Method
		if err := s.resolveRef(&method, "method = ?", *req.Method, "Method"); err != nil {
			return err
		}
		updates["method_id"] = method.ID
	}
	if req.CaveName != nil {
		var cave models.Cave
		if err := s.resolveRef(&cave, "cave_name = ?", *req.CaveName, "Cave"); err != nil {
			return err
		}
		updates["cave_id"] = cave.ID
	}
	if req.Description != nil {
		var point models.SamplingPoint
		if err := s.resolveRef(&point, "description = ?", *req.Description, "Sampling Point"); err != nil {
			return err
		}
		updates["sampling_point_id"] = point.ID
	}
	if req.OrganismType != nil {
		var organism models.Organism
		if err := s.resolveRef(&organism, "organism_type = ?", *req.OrganismType, "Organism"); err != nil {
			return err
		}
		updates["organism_id"] = organism.ID

		// The code depends on the organism's value, so an organism change
		// recomputes it against the existing row id, and the accession is
		// rebuilt from scratch rather than segment-rewritten.
		code := accession.Code(organism.Value, int(isolate.ID))
		updates["code"] = code

		var institution models.Institution
		var collection models.Collection
		instErr := s.db.First(&institution, isolate.InstitutionID).Error
		if instErr != nil && !errors.Is(instErr, gorm.ErrRecordNotFound) {
			return apierrors.InternalErrorWithCause("failed to load institution", instErr)
		}
		collErr := s.db.First(&collection, isolate.CollectionID).Error
		if collErr != nil && !errors.Is(collErr, gorm.ErrRecordNotFound) {
			return apierrors.InternalErrorWithCause("failed to load collection", collErr)
		}
		// Only a genuinely missing reference row skips the accession
		// recompute; the code alone is still rewritten.
		if instErr == nil && collErr == nil {
			updates["accession_no"] = accession.Format(collection.CollectionCode, institution.InstitutionCode, code)
		}
	}

	if err := s.db.Model(&models.Isolate{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return apierrors.InternalErrorWithCause("failed to update isolate", err)
	}
	return nil
}

func (s *IsolateService) resolveRef(dest interface{}, cond, value, entity string) error {
	err := s.db.Where(cond, value).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFoundError(fmt.Sprintf("%s not found", entity))
	}
	if err != nil {
		return apierrors.InternalErrorWithCause(fmt.Sprintf("failed to resolve %s", strings.ToLower(entity)), err)
	}
	return nil
}

// Delete tombstones the listed isolates, all-or-nothing: if any id does
// not resolve, nothing is deleted and every missing id is reported.
func (s *IsolateService) Delete(ids []uint) error {
	if len(ids) == 0 {
		return apierrors.ValidationError("no isolate ids supplied")
	}

	var found []uint
	if err := s.db.Model(&models.Isolate{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return apierrors.InternalErrorWithCause("failed to load isolates", err)
	}
	foundSet := make(map[uint]bool, len(found))
	for _, id := range found {
		foundSet[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !foundSet[id] {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	if len(missing) > 0 {
		return apierrors.NotFoundError(fmt.Sprintf("isolates not found: %s", strings.Join(missing, ", ")))
	}

	// Each deletion touches a disjoint row, so they run concurrently; the
	// first failure is surfaced.
	var group errgroup.Group
	for _, id := range ids {
		id := id
		group.Go(func() error {
			return s.db.Delete(&models.Isolate{}, id).Error
		})
	}
	if err := group.Wait(); err != nil {
		return apierrors.InternalErrorWithCause("failed to delete isolates", err)
	}
	return nil
}

// SetImageRef stores or clears the opaque asset reference on an isolate.
func (s *IsolateService) SetImageRef(id uint, ref *string) error {
	isolate, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(isolate).Update("image_ref", ref).Error; err != nil {
		return apierrors.InternalErrorWithCause("failed to update image reference", err)
	}
	return nil
}

// CascadeOnCollectionRecode rewrites accession segment 0 of every
// non-deleted isolate under the recoded collection. Runs inside the
// transaction that renames the collection.
func (s *IsolateService) CascadeOnCollectionRecode(tx *gorm.DB, collectionID uint, newCode string) error {
	return s.cascadeAccessions(tx, "collection_id = ?", collectionID, func(acc accession.Accession) accession.Accession {
		return acc.WithCollectionCode(newCode)
	})
}

// CascadeOnInstitutionRecode rewrites accession segment 1 of every
// non-deleted isolate under the recoded institution.
func (s *IsolateService) CascadeOnInstitutionRecode(tx *gorm.DB, institutionID uint, newCode string) error {
	return s.cascadeAccessions(tx, "institution_id = ?", institutionID, func(acc accession.Accession) accession.Accession {
		return acc.WithInstitutionCode(newCode)
	})
}

// CascadeOnOrganismRecode recomputes both code and accession segment 2 of
// every non-deleted isolate under the recoded organism.
func (s *IsolateService) CascadeOnOrganismRecode(tx *gorm.DB, organismID uint, newValue int) error {
	var isolates []models.Isolate
	if err := tx.Where("organism_id = ?", organismID).Find(&isolates).Error; err != nil {
		return apierrors.InternalErrorWithCause("failed to load dependent isolates", err)
	}
	for i := range isolates {
		isolate := &isolates[i]
		code := accession.Code(newValue, int(isolate.ID))
		updates := map[string]interface{}{"code": code}
		if isolate.AccessionNo != nil {
			acc, err := accession.Parse(*isolate.AccessionNo)
			if err != nil {
				return apierrors.InternalErrorWithCause("stored accession is malformed", err)
			}
			updates["accession_no"] = acc.WithCode(code).String()
		}
		if err := tx.Model(isolate).Updates(updates).Error; err != nil {
			return apierrors.InternalErrorWithCause("failed to recode isolate", err)
		}
	}
	return nil
}

func (s *IsolateService) cascadeAccessions(tx *gorm.DB, cond string, id uint, rewrite func(accession.Accession) accession.Accession) error {
	var isolates []models.Isolate
	if err := tx.Where(cond, id).Find(&isolates).Error; err != nil {
		return apierrors.InternalErrorWithCause("failed to load dependent isolates", err)
	}
	for i := range isolates {
		isolate := &isolates[i]
		if isolate.AccessionNo == nil {
			continue
		}
		acc, err := accession.Parse(*isolate.AccessionNo)
		if err != nil {
			return apierrors.InternalErrorWithCause("stored accession is malformed", err)
		}
		updated := rewrite(acc).String()
		if err := tx.Model(isolate).Update("accession_no", updated).Error; err != nil {
			return apierrors.InternalErrorWithCause("failed to rewrite accession", err)
		}
	}
	return nil
}
