package services_test

import (
	"testing"

	"github.com/cavemicro/isolate-api/models"
	apierrors "github.com/cavemicro/isolate-api/pkg/errors"
	"github.com/cavemicro/isolate-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB creates an in-memory SQLite database with all tables migrated.
// The pool is pinned to one connection so every query sees the same
// in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Organism{},
		&models.Sample{},
		&models.Host{},
		&models.Method{},
		&models.Location{},
		&models.Cave{},
		&models.SamplingPoint{},
		&models.Institution{},
		&models.Collection{},
		&models.Isolate{},
		&models.Permission{},
		&models.Role{},
		&models.User{},
	))
	return db
}

// testEnv bundles the wired services over one test database.
type testEnv struct {
	db       *gorm.DB
	isolates *services.IsolateService
	catalog  *services.Catalog
	policy   *services.PolicyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	isolates := services.NewIsolateService(db)
	return &testEnv{
		db:       db,
		isolates: isolates,
		catalog:  services.NewCatalog(db, isolates),
		policy:   services.NewPolicyService(db),
	}
}

// seedReferences populates one row of every reference kind through the
// catalog services, so isolate creates can resolve a full set of natural
// keys.
func (e *testEnv) seedReferences(t *testing.T) {
	t.Helper()

	_, err := e.catalog.Organisms.Create(map[string]string{
		"organism_type": "Bacteria", "value": "50000",
	})
	require.NoError(t, err)
	_, err = e.catalog.Samples.Create(map[string]string{"sample_type": "Guano"})
	require.NoError(t, err)
	_, err = e.catalog.Hosts.Create(map[string]string{
		"host_type": "Bat", "host_genus": "Rhinolophus", "host_species": "Rhinolophus rouxii",
	})
	require.NoError(t, err)
	_, err = e.catalog.Methods.Create(map[string]string{"method": "Streak plate"})
	require.NoError(t, err)
	_, err = e.catalog.Locations.Create(map[string]string{
		"location_code": "LOC1", "town": "Mulu", "province": "Sarawak",
	})
	require.NoError(t, err)
	_, err = e.catalog.Caves.Create(map[string]string{
		"cave_code": "CV1", "cave_name": "Deer Cave", "cave_location_code": "LOC1",
	})
	require.NoError(t, err)
	_, err = e.catalog.SamplingPoints.Create(map[string]string{
		"description": "Guano mound near entrance",
	})
	require.NoError(t, err)
	_, err = e.catalog.Institutions.Create(map[string]string{
		"institution_name": "Museum of Natural History", "institution_code": "MNH",
	})
	require.NoError(t, err)
	_, err = e.catalog.Collections.Create(map[string]string{
		"collection_name": "Microbial Culture Collection", "collection_code": "MCC",
	})
	require.NoError(t, err)
}

// newCreateIsolateRequest returns a request resolving against the seeded
// reference rows.
func newCreateIsolateRequest() *models.CreateIsolateRequest {
	return &models.CreateIsolateRequest{
		Genus:           "Streptomyces",
		Species:         "cavernae",
		IsolateDomain:   "Bacteria",
		IsolatePhylum:   "Actinomycetota",
		IsolateClass:    "Actinomycetes",
		IsolateOrder:    "Kitasatosporales",
		IsolateFamily:   "Streptomycetaceae",
		OrganismType:    "Bacteria",
		SampleType:      "Guano",
		HostType:        "Bat",
		HostGenus:       "Rhinolophus",
		HostSpecies:     "Rhinolophus rouxii",
		Method:          "Streak plate",
		InstitutionName: "Museum of Natural History",
		CollectionName:  "Microbial Culture Collection",
		CaveName:        "Deer Cave",
		Description:     "Guano mound near entrance",
		AccessLevel:     "Public",
	}
}

// requireAPIError asserts that err is a structured API error with the
// given status and message.
func requireAPIError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	apiErr := apierrors.GetAPIError(err)
	require.NotNil(t, apiErr, "expected an APIError, got %v", err)
	require.Equal(t, status, apiErr.HTTPStatus)
	require.Equal(t, message, apiErr.Message)
}

// seedRole creates a role carrying the given permission names.
func seedRole(t *testing.T, db *gorm.DB, name string, permissions ...string) *models.Role {
	t.Helper()
	role := models.Role{RoleName: name}
	for _, p := range permissions {
		var perm models.Permission
		err := db.Where("permission_name = ?", p).First(&perm).Error
		if err == gorm.ErrRecordNotFound {
			perm = models.Permission{PermissionName: p}
			require.NoError(t, db.Create(&perm).Error)
		} else {
			require.NoError(t, err)
		}
		role.Permissions = append(role.Permissions, perm)
	}
	require.NoError(t, db.Create(&role).Error)
	return &role
}

// seedUser creates a user holding the given role.
func seedUser(t *testing.T, db *gorm.DB, username string, role *models.Role) *models.User {
	t.Helper()
	user := models.User{
		FirstName:    "Test",
		LastName:     "User",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		RoleID:       role.ID,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}
