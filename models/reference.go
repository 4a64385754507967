package models

// Reference lookup entities. Each carries a natural key (one or two
// business-meaningful fields) that must stay unique among non-deleted rows.

// Organism represents an organism class (Bacteria, Fungi, ...). Value is
// the numeric code-space base used in accession derivation, e.g. 50000.
type Organism struct {
	BaseModel
	OrganismType string `gorm:"column:organism_type;not null" json:"organismType"`
	Value        int    `gorm:"column:value;not null" json:"value"`
}

func (Organism) TableName() string { return "organisms" }

// Sample represents a sample type (guano, swab, ...).
type Sample struct {
	BaseModel
	SampleType string `gorm:"column:sample_type;not null" json:"sampleType"`
}

func (Sample) TableName() string { return "samples" }

// Host represents the host animal a sample was collected from.
type Host struct {
	BaseModel
	HostType    string `gorm:"column:host_type;not null" json:"hostType"`
	HostGenus   string `gorm:"column:host_genus;not null" json:"hostGenus"`
	HostSpecies string `gorm:"column:host_species;not null" json:"hostSpecies"`
}

func (Host) TableName() string { return "hosts" }

// Method represents a sampling method.
type Method struct {
	BaseModel
	Method string `gorm:"column:method;not null" json:"method"`
}

func (Method) TableName() string { return "methods" }

// Location represents a geographic location. The natural key is the
// location_code and town combination.
type Location struct {
	BaseModel
	LocationCode string `gorm:"column:location_code;not null" json:"locationCode"`
	Town         string `gorm:"column:town;not null" json:"town"`
	Province     string `gorm:"column:province;not null" json:"province"`
}

func (Location) TableName() string { return "locations" }

// Cave represents a cave site within a location.
type Cave struct {
	BaseModel
	CaveCode   string `gorm:"column:cave_code;not null" json:"caveCode"`
	CaveName   string `gorm:"column:cave_name;not null" json:"caveName"`
	LocationID uint   `gorm:"column:location_id;not null" json:"locationId"`

	Location Location `gorm:"foreignKey:LocationID" json:"location"`
}

func (Cave) TableName() string { return "caves" }

// SamplingPoint represents a sampling point inside a cave, identified by
// its free-text description.
type SamplingPoint struct {
	BaseModel
	Description string `gorm:"column:description;not null" json:"description"`
}

func (SamplingPoint) TableName() string { return "sampling_points" }

// Institution represents a holding institution. InstitutionCode is the
// short code used in accession derivation.
type Institution struct {
	BaseModel
	InstitutionName string `gorm:"column:institution_name;not null" json:"institutionName"`
	InstitutionCode string `gorm:"column:institution_code;not null" json:"institutionCode"`
}

func (Institution) TableName() string { return "institutions" }

// Collection represents a culture collection. CollectionCode is the short
// code used in accession derivation.
type Collection struct {
	BaseModel
	CollectionName string `gorm:"column:collection_name;not null" json:"collectionName"`
	CollectionCode string `gorm:"column:collection_code;not null" json:"collectionCode"`
}

func (Collection) TableName() string { return "collections" }
