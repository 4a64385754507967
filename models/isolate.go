package models

// Isolate is the central record: one cataloged microbial sample with its
// taxonomy, provenance references, and derived accession identity.
//
// Code and AccessionNo are nullable because they depend on the row id and
// are only filled in by a second write immediately after creation.
type Isolate struct {
	BaseModel
	Genus         string `gorm:"column:genus;not null" json:"genus"`
	Species       string `gorm:"column:species;not null" json:"species"`
	IsolateDomain string `gorm:"column:isolate_domain;not null" json:"isolateDomain"`
	IsolatePhylum string `gorm:"column:isolate_phylum;not null" json:"isolatePhylum"`
	IsolateClass  string `gorm:"column:isolate_class;not null" json:"isolateClass"`
	IsolateOrder  string `gorm:"column:isolate_order;not null" json:"isolateOrder"`
	IsolateFamily string `gorm:"column:isolate_family;not null" json:"isolateFamily"`

	OrganismID      uint `gorm:"column:organism_id;not null" json:"organismId"`
	SampleID        uint `gorm:"column:sample_id;not null" json:"sampleId"`
	HostID          uint `gorm:"column:host_id;not null" json:"hostId"`
	MethodID        uint `gorm:"column:method_id;not null" json:"methodId"`
	CaveID          uint `gorm:"column:cave_id;not null" json:"caveId"`
	SamplingPointID uint `gorm:"column:sampling_point_id;not null" json:"samplingPointId"`
	InstitutionID   uint `gorm:"column:institution_id;not null" json:"institutionId"`
	CollectionID    uint `gorm:"column:collection_id;not null" json:"collectionId"`

	AccessLevel AccessLevel `gorm:"column:access_level;not null" json:"accessLevel"`

	Code        *int    `gorm:"column:code" json:"code"`
	AccessionNo *string `gorm:"column:accession_no" json:"accessionNo"`
	ImageRef    *string `gorm:"column:image_ref" json:"imageRef,omitempty"`

	Organism      Organism      `gorm:"foreignKey:OrganismID" json:"organism"`
	Sample        Sample        `gorm:"foreignKey:SampleID" json:"sample"`
	Host          Host          `gorm:"foreignKey:HostID" json:"host"`
	Method        Method        `gorm:"foreignKey:MethodID" json:"method"`
	Cave          Cave          `gorm:"foreignKey:CaveID" json:"cave"`
	SamplingPoint SamplingPoint `gorm:"foreignKey:SamplingPointID" json:"samplingPoint"`
	Institution   Institution   `gorm:"foreignKey:InstitutionID" json:"institution"`
	Collection    Collection    `gorm:"foreignKey:CollectionID" json:"collection"`
}

// TableName sets the table name for GORM
func (Isolate) TableName() string {
	return "isolates"
}
