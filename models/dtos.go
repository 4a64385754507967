package models

// Request/Response DTOs for the API endpoints

// CreateIsolateRequest carries every field required to create an isolate.
// Reference entities are addressed by natural key, not surrogate id.
type CreateIsolateRequest struct {
	Genus         string `json:"genus"`
	Species       string `json:"species"`
	IsolateDomain string `json:"isolate_domain"`
	IsolatePhylum string `json:"isolate_phylum"`
	IsolateClass  string `json:"isolate_class"`
	IsolateOrder  string `json:"isolate_order"`
	IsolateFamily string `json:"isolate_family"`

	OrganismType    string `json:"organism_type"`
	SampleType      string `json:"sample_type"`
	HostType        string `json:"host_type"`
	HostGenus       string `json:"host_genus"`
	HostSpecies     string `json:"host_species"`
	Method          string `json:"method"`
	InstitutionName string `json:"institution_name"`
	CollectionName  string `json:"collection_name"`
	CaveName        string `json:"cave_name"`
	Description     string `json:"description"`

	AccessLevel string `json:"access_level"`
}

// RequiredFields lists every field of the create request in request order.
// All must be non-empty; the legacy behavior reports only a generic
// missing-fields error, not which one.
func (r *CreateIsolateRequest) RequiredFields() []string {
	return []string{
		r.Genus, r.Species, r.IsolateDomain, r.IsolatePhylum, r.IsolateClass,
		r.IsolateOrder, r.IsolateFamily, r.OrganismType, r.SampleType,
		r.HostType, r.HostGenus, r.HostSpecies, r.Method, r.InstitutionName,
		r.CollectionName, r.CaveName, r.Description, r.AccessLevel,
	}
}

// UpdateIsolateRequest is a partial update; nil fields are untouched.
type UpdateIsolateRequest struct {
	Genus         *string `json:"genus,omitempty"`
	Species       *string `json:"species,omitempty"`
	IsolateDomain *string `json:"isolate_domain,omitempty"`
	IsolatePhylum *string `json:"isolate_phylum,omitempty"`
	IsolateClass  *string `json:"isolate_class,omitempty"`
	IsolateOrder  *string `json:"isolate_order,omitempty"`
	IsolateFamily *string `json:"isolate_family,omitempty"`

	OrganismType *string `json:"organism_type,omitempty"`
	SampleType   *string `json:"sample_type,omitempty"`
	HostSpecies  *string `json:"host_species,omitempty"`
	Method       *string `json:"method,omitempty"`
	CaveName     *string `json:"cave_name,omitempty"`
	Description  *string `json:"description,omitempty"`

	AccessLevel *string `json:"access_level,omitempty"`
}

// Empty reports whether the request carries no field at all.
func (r *UpdateIsolateRequest) Empty() bool {
	return r.Genus == nil && r.Species == nil && r.IsolateDomain == nil &&
		r.IsolatePhylum == nil && r.IsolateClass == nil && r.IsolateOrder == nil &&
		r.IsolateFamily == nil && r.OrganismType == nil && r.SampleType == nil &&
		r.HostSpecies == nil && r.Method == nil && r.CaveName == nil &&
		r.Description == nil && r.AccessLevel == nil
}

// DeleteIsolatesRequest is the batch tombstone request.
type DeleteIsolatesRequest struct {
	IsolateIDs []uint `json:"isolateIds"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleName  string `json:"role_name"`
}

// LoginRequest exchanges credentials for a bearer token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public projection of a user. RoleName is computed
// from the Role relation on read.
type UserResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	RoleName  string `json:"roleName"`
}

// LoginResponse carries the issued token alongside the user projection.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MessageResponse is a bare acknowledgment.
type MessageResponse struct {
	Message string `json:"message"`
}

// CollectionResponse wraps list results.
type CollectionResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

// ImageResponse reports the stored asset reference after an upload.
type ImageResponse struct {
	ImageRef string `json:"imageRef"`
	URL      string `json:"url,omitempty"`
}
