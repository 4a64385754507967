package services_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/cavemicro/isolate-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCreate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("CreateAndGet", func(t *testing.T) {
		organism, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": "Bacteria", "value": "50000",
		})
		require.NoError(t, err)
		assert.Equal(t, "Bacteria", organism.OrganismType)
		assert.Equal(t, 50000, organism.Value)

		loaded, err := env.catalog.Organisms.Get(organism.ID)
		require.NoError(t, err)
		assert.Equal(t, organism.ID, loaded.ID)
	})

	t.Run("MissingRequiredField", func(t *testing.T) {
		_, err := env.catalog.Organisms.Create(map[string]string{"organism_type": "Fungi"})
		requireAPIError(t, err, http.StatusBadRequest, "missing required fields")
	})

	t.Run("NonNumericValue", func(t *testing.T) {
		_, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": "Fungi", "value": "60a00",
		})
		requireAPIError(t, err, http.StatusBadRequest, "value must contain digits only")
	})

	t.Run("GetUnknownID", func(t *testing.T) {
		_, err := env.catalog.Organisms.Get(999)
		requireAPIError(t, err, http.StatusNotFound, "Organism not found")
	})

	t.Run("OverlongName", func(t *testing.T) {
		_, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": strings.Repeat("x", models.MaxNameLength+1), "value": "60000",
		})
		requireAPIError(t, err, http.StatusBadRequest,
			fmt.Sprintf("organism_type must be at most %d characters", models.MaxNameLength))
	})

	t.Run("OverlongCode", func(t *testing.T) {
		_, err := env.catalog.Institutions.Create(map[string]string{
			"institution_name": "Museum of Natural History",
			"institution_code": strings.Repeat("X", models.MaxCodeLength+1),
		})
		requireAPIError(t, err, http.StatusBadRequest,
			fmt.Sprintf("institution_code must be at most %d characters", models.MaxCodeLength))
	})
}

func TestCatalogUniqueness(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.Organisms.Create(map[string]string{
		"organism_type": "Bacteria", "value": "50000",
	})
	require.NoError(t, err)

	t.Run("SingleFieldCollision", func(t *testing.T) {
		_, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": "Bacteria", "value": "60000",
		})
		requireAPIError(t, err, http.StatusConflict, "type already exists")
	})

	t.Run("BothFieldsCollide", func(t *testing.T) {
		_, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": "Bacteria", "value": "50000",
		})
		requireAPIError(t, err, http.StatusConflict, "type and value already exist")
	})

	t.Run("DistinctKeysAccepted", func(t *testing.T) {
		_, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": "Fungi", "value": "70000",
		})
		require.NoError(t, err)
	})

	t.Run("UpdateExcludesSelf", func(t *testing.T) {
		organism, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": "Archaea", "value": "80000",
		})
		require.NoError(t, err)

		// Re-submitting the row's own key must not collide with itself.
		updated, err := env.catalog.Organisms.Update(organism.ID, map[string]string{
			"organism_type": "Archaea",
		})
		require.NoError(t, err)
		assert.Equal(t, "Archaea", updated.OrganismType)

		// Taking another row's key must.
		_, err = env.catalog.Organisms.Update(organism.ID, map[string]string{
			"organism_type": "Fungi",
		})
		requireAPIError(t, err, http.StatusConflict, "type already exists")
	})
}

func TestCatalogCombinedKey(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.Locations.Create(map[string]string{
		"location_code": "LOC1", "town": "Mulu", "province": "Sarawak",
	})
	require.NoError(t, err)

	t.Run("SameCodeDifferentTownAccepted", func(t *testing.T) {
		_, err := env.catalog.Locations.Create(map[string]string{
			"location_code": "LOC1", "town": "Miri", "province": "Sarawak",
		})
		require.NoError(t, err)
	})

	t.Run("SameTupleRejected", func(t *testing.T) {
		_, err := env.catalog.Locations.Create(map[string]string{
			"location_code": "LOC1", "town": "Mulu", "province": "Sabah",
		})
		requireAPIError(t, err, http.StatusConflict, "code and town already exist")
	})
}

func TestCatalogCaveLocationResolution(t *testing.T) {
	env := newTestEnv(t)

	location, err := env.catalog.Locations.Create(map[string]string{
		"location_code": "LOC1", "town": "Mulu", "province": "Sarawak",
	})
	require.NoError(t, err)

	t.Run("ResolvesLocationCode", func(t *testing.T) {
		cave, err := env.catalog.Caves.Create(map[string]string{
			"cave_code": "CV1", "cave_name": "Deer Cave", "cave_location_code": "LOC1",
		})
		require.NoError(t, err)
		assert.Equal(t, location.ID, cave.LocationID)
	})

	t.Run("MissingLocationCode", func(t *testing.T) {
		_, err := env.catalog.Caves.Create(map[string]string{
			"cave_code": "CV2", "cave_name": "Clearwater Cave",
		})
		requireAPIError(t, err, http.StatusBadRequest, "missing required fields")
	})

	t.Run("UnknownLocationCode", func(t *testing.T) {
		_, err := env.catalog.Caves.Create(map[string]string{
			"cave_code": "CV2", "cave_name": "Clearwater Cave", "cave_location_code": "NOPE",
		})
		requireAPIError(t, err, http.StatusNotFound, "Location not found")
	})
}

func TestCatalogSearch(t *testing.T) {
	env := newTestEnv(t)

	for _, attrs := range []map[string]string{
		{"host_type": "Bat", "host_genus": "Rhinolophus", "host_species": "Rhinolophus rouxii"},
		{"host_type": "Bat", "host_genus": "Miniopterus", "host_species": "Miniopterus schreibersii"},
	} {
		_, err := env.catalog.Hosts.Create(attrs)
		require.NoError(t, err)
	}

	t.Run("CaseInsensitiveSubstring", func(t *testing.T) {
		rows, err := env.catalog.Hosts.Search(map[string]string{"host_species": "ROUXII"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Rhinolophus rouxii", rows[0].HostSpecies)
	})

	t.Run("MultipleFieldsAreORed", func(t *testing.T) {
		rows, err := env.catalog.Hosts.Search(map[string]string{
			"host_species": "rouxii", "host_genus": "Miniopterus",
		})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("NoSearchField", func(t *testing.T) {
		_, err := env.catalog.Hosts.Search(map[string]string{})
		requireAPIError(t, err, http.StatusBadRequest, "no search field supplied")
	})
}

func TestCatalogList(t *testing.T) {
	env := newTestEnv(t)

	t.Run("EmptyListIsNotAnError", func(t *testing.T) {
		rows, err := env.catalog.Methods.List()
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("DeletedRowsAreExcluded", func(t *testing.T) {
		method, err := env.catalog.Methods.Create(map[string]string{"method": "Streak plate"})
		require.NoError(t, err)
		require.NoError(t, env.catalog.Methods.Delete(method.ID))

		rows, err := env.catalog.Methods.List()
		require.NoError(t, err)
		assert.Empty(t, rows)

		// The freed natural key is reusable.
		_, err = env.catalog.Methods.Create(map[string]string{"method": "Streak plate"})
		require.NoError(t, err)
	})
}

func TestCatalogUpdateValidation(t *testing.T) {
	env := newTestEnv(t)

	method, err := env.catalog.Methods.Create(map[string]string{"method": "Streak plate"})
	require.NoError(t, err)

	_, err = env.catalog.Methods.Update(method.ID, map[string]string{})
	requireAPIError(t, err, http.StatusBadRequest, "no updatable field supplied")
}
