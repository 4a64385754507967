package services

import (
	"errors"
	"strconv"

	"github.com/cavemicro/isolate-api/models"
	apierrors "github.com/cavemicro/isolate-api/pkg/errors"
	"gorm.io/gorm"
)

// Catalog bundles the nine reference-kind stores.
type Catalog struct {
	Organisms      *CatalogService[models.Organism]
	Samples        *CatalogService[models.Sample]
	Hosts          *CatalogService[models.Host]
	Methods        *CatalogService[models.Method]
	Locations      *CatalogService[models.Location]
	Caves          *CatalogService[models.Cave]
	SamplingPoints *CatalogService[models.SamplingPoint]
	Institutions   *CatalogService[models.Institution]
	Collections    *CatalogService[models.Collection]
}

// NewCatalog wires every kind descriptor, including the accession recode
// cascades that institution/collection/organism renames trigger.
func NewCatalog(db *gorm.DB, isolates *IsolateService) *Catalog {
	return &Catalog{
		Organisms:      NewCatalogService(db, organismKind(isolates)),
		Samples:        NewCatalogService(db, sampleKind()),
		Hosts:          NewCatalogService(db, hostKind()),
		Methods:        NewCatalogService(db, methodKind()),
		Locations:      NewCatalogService(db, locationKind()),
		Caves:          NewCatalogService(db, caveKind()),
		SamplingPoints: NewCatalogService(db, samplingPointKind()),
		Institutions:   NewCatalogService(db, institutionKind(isolates)),
		Collections:    NewCatalogService(db, collectionKind(isolates)),
	}
}

// setDigits validates a digits-only numeric code before storing it.
func setDigits(assign func(int)) func(string) error {
	return func(v string) error {
		for _, r := range v {
			if r < '0' || r > '9' {
				return apierrors.ValidationError("value must contain digits only")
			}
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return apierrors.ValidationError("value must contain digits only")
		}
		assign(n)
		return nil
	}
}

func organismKind(isolates *IsolateService) Kind[models.Organism] {
	return Kind[models.Organism]{
		Name:     "Organism",
		Resource: "organism",
		Fields: []Field[models.Organism]{
			{
				Name: "organism_type", Column: "organism_type", Label: "type",
				Key: true, Search: true, Required: true,
				Get: func(o *models.Organism) string { return o.OrganismType },
				Set: func(o *models.Organism, v string) error { o.OrganismType = v; return nil },
			},
			{
				Name: "value", Column: "value", Label: "value",
				Key: true, Required: true,
				Get: func(o *models.Organism) string { return strconv.Itoa(o.Value) },
				Set: func(o *models.Organism, v string) error {
					return setDigits(func(n int) { o.Value = n })(v)
				},
			},
		},
		AfterUpdate: func(tx *gorm.DB, before, after *models.Organism) error {
			if before.Value != after.Value {
				return isolates.CascadeOnOrganismRecode(tx, after.ID, after.Value)
			}
			return nil
		},
		InUse: isolateInUseCheck("organism_id"),
	}
}

func sampleKind() Kind[models.Sample] {
	return Kind[models.Sample]{
		Name:     "Sample",
		Resource: "sample",
		Fields: []Field[models.Sample]{
			{
				Name: "sample_type", Column: "sample_type", Label: "type",
				Key: true, Search: true, Required: true,
				Get: func(s *models.Sample) string { return s.SampleType },
				Set: func(s *models.Sample, v string) error { s.SampleType = v; return nil },
			},
		},
		InUse: isolateInUseCheck("sample_id"),
	}
}

func hostKind() Kind[models.Host] {
	return Kind[models.Host]{
		Name:     "Host",
		Resource: "host",
		Fields: []Field[models.Host]{
			{
				Name: "host_type", Column: "host_type", Required: true,
				Get: func(h *models.Host) string { return h.HostType },
				Set: func(h *models.Host, v string) error { h.HostType = v; return nil },
			},
			{
				Name: "host_genus", Column: "host_genus", Search: true, Required: true,
				Get: func(h *models.Host) string { return h.HostGenus },
				Set: func(h *models.Host, v string) error { h.HostGenus = v; return nil },
			},
			{
				Name: "host_species", Column: "host_species", Label: "species",
				Key: true, Search: true, Required: true,
				Get: func(h *models.Host) string { return h.HostSpecies },
				Set: func(h *models.Host, v string) error { h.HostSpecies = v; return nil },
			},
		},
		InUse: isolateInUseCheck("host_id"),
	}
}

func methodKind() Kind[models.Method] {
	return Kind[models.Method]{
		Name:     "Method",
		Resource: "method",
		Fields: []Field[models.Method]{
			{
				Name: "method", Column: "method", Label: "method",
				Key: true, Search: true, Required: true,
				Get: func(m *models.Method) string { return m.Method },
				Set: func(m *models.Method, v string) error { m.Method = v; return nil },
			},
		},
		InUse: isolateInUseCheck("method_id"),
	}
}

func locationKind() Kind[models.Location] {
	return Kind[models.Location]{
		Name:     "Location",
		Resource: "location",
		KeyMode:  KeyCombined,
		Fields: []Field[models.Location]{
			{
				Name: "location_code", Column: "location_code", Label: "code",
				Key: true, Required: true, MaxLen: models.MaxCodeLength,
				Get: func(l *models.Location) string { return l.LocationCode },
				Set: func(l *models.Location, v string) error { l.LocationCode = v; return nil },
			},
			{
				Name: "town", Column: "town", Label: "town",
				Key: true, Search: true, Required: true,
				Get: func(l *models.Location) string { return l.Town },
				Set: func(l *models.Location, v string) error { l.Town = v; return nil },
			},
			{
				Name: "province", Column: "province", Search: true, Required: true,
				Get: func(l *models.Location) string { return l.Province },
				Set: func(l *models.Location, v string) error { l.Province = v; return nil },
			},
		},
		InUse: locationInUse,
	}
}

func caveKind() Kind[models.Cave] {
	return Kind[models.Cave]{
		Name:     "Cave",
		Resource: "cave",
		KeyMode:  KeyCombined,
		Fields: []Field[models.Cave]{
			{
				Name: "cave_code", Column: "cave_code", Label: "code",
				Key: true, Required: true, MaxLen: models.MaxCodeLength,
				Get: func(c *models.Cave) string { return c.CaveCode },
				Set: func(c *models.Cave, v string) error { c.CaveCode = v; return nil },
			},
			{
				Name: "cave_name", Column: "cave_name", Label: "name",
				Key: true, Search: true, Required: true,
				Get: func(c *models.Cave) string { return c.CaveName },
				Set: func(c *models.Cave, v string) error { c.CaveName = v; return nil },
			},
			// Virtual: resolved to location_id in BeforeSave.
			{Name: "cave_location_code", Required: true, MaxLen: models.MaxCodeLength},
		},
		BeforeSave: func(tx *gorm.DB, cave *models.Cave, attrs map[string]string) error {
			code, ok := attrs["cave_location_code"]
			if !ok || code == "" {
				return nil
			}
			var location models.Location
			err := tx.Where("location_code = ?", code).First(&location).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFoundError("Location not found")
			}
			if err != nil {
				return apierrors.InternalErrorWithCause("failed to resolve location", err)
			}
			cave.LocationID = location.ID
			return nil
		},
		InUse: isolateInUseCheck("cave_id"),
	}
}

func samplingPointKind() Kind[models.SamplingPoint] {
	return Kind[models.SamplingPoint]{
		Name:     "Sampling Point",
		Resource: "samplingPoint",
		Fields: []Field[models.SamplingPoint]{
			{
				Name: "description", Column: "description", Label: "description",
				Key: true, Search: true, Required: true,
				Get: func(p *models.SamplingPoint) string { return p.Description },
				Set: func(p *models.SamplingPoint, v string) error { p.Description = v; return nil },
			},
		},
		InUse: isolateInUseCheck("sampling_point_id"),
	}
}

func institutionKind(isolates *IsolateService) Kind[models.Institution] {
	return Kind[models.Institution]{
		Name:     "Institution",
		Resource: "institution",
		Fields: []Field[models.Institution]{
			{
				Name: "institution_name", Column: "institution_name", Label: "name",
				Key: true, Search: true, Required: true,
				Get: func(i *models.Institution) string { return i.InstitutionName },
				Set: func(i *models.Institution, v string) error { i.InstitutionName = v; return nil },
			},
			{
				Name: "institution_code", Column: "institution_code", Label: "code",
				Key: true, Required: true, MaxLen: models.MaxCodeLength,
				Get: func(i *models.Institution) string { return i.InstitutionCode },
				Set: func(i *models.Institution, v string) error { i.InstitutionCode = v; return nil },
			},
		},
		AfterUpdate: func(tx *gorm.DB, before, after *models.Institution) error {
			if before.InstitutionCode != after.InstitutionCode {
				return isolates.CascadeOnInstitutionRecode(tx, after.ID, after.InstitutionCode)
			}
			return nil
		},
		InUse: isolateInUseCheck("institution_id"),
	}
}

func collectionKind(isolates *IsolateService) Kind[models.Collection] {
	return Kind[models.Collection]{
		Name:     "Collection",
		Resource: "collection",
		Fields: []Field[models.Collection]{
			{
				Name: "collection_name", Column: "collection_name", Label: "name",
				Key: true, Search: true, Required: true,
				Get: func(c *models.Collection) string { return c.CollectionName },
				Set: func(c *models.Collection, v string) error { c.CollectionName = v; return nil },
			},
			{
				Name: "collection_code", Column: "collection_code", Label: "code",
				Key: true, Required: true, MaxLen: models.MaxCodeLength,
				Get: func(c *models.Collection) string { return c.CollectionCode },
				Set: func(c *models.Collection, v string) error { c.CollectionCode = v; return nil },
			},
		},
		AfterUpdate: func(tx *gorm.DB, before, after *models.Collection) error {
			if before.CollectionCode != after.CollectionCode {
				return isolates.CascadeOnCollectionRecode(tx, after.ID, after.CollectionCode)
			}
			return nil
		},
		InUse: isolateInUseCheck("collection_id"),
	}
}
