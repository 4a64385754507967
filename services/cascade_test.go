package services_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/cavemicro/isolate-api/accession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstitutionRecodeCascades(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)
	original := *isolate.AccessionNo

	institutions, err := env.catalog.Institutions.List()
	require.NoError(t, err)
	require.Len(t, institutions, 1)
	institutionID := institutions[0].ID

	t.Run("RecodeRewritesDependentAccessions", func(t *testing.T) {
		_, err := env.catalog.Institutions.Update(institutionID, map[string]string{
			"institution_code": "NHM",
		})
		require.NoError(t, err)

		updated, err := env.isolates.Get(isolate.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.AccessionNo)
		assert.Equal(t, fmt.Sprintf("MCC-NHM-%d", *isolate.Code), *updated.AccessionNo)
	})

	t.Run("RenameBackRestoresTheOriginal", func(t *testing.T) {
		_, err := env.catalog.Institutions.Update(institutionID, map[string]string{
			"institution_code": "MNH",
		})
		require.NoError(t, err)

		updated, err := env.isolates.Get(isolate.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.AccessionNo)
		assert.Equal(t, original, *updated.AccessionNo)
	})

	t.Run("NameOnlyUpdateDoesNotTouchAccessions", func(t *testing.T) {
		_, err := env.catalog.Institutions.Update(institutionID, map[string]string{
			"institution_name": "National Museum",
		})
		require.NoError(t, err)

		updated, err := env.isolates.Get(isolate.ID)
		require.NoError(t, err)
		assert.Equal(t, original, *updated.AccessionNo)
	})
}

func TestCollectionRecodeCascades(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)

	collections, err := env.catalog.Collections.List()
	require.NoError(t, err)
	require.Len(t, collections, 1)

	_, err = env.catalog.Collections.Update(collections[0].ID, map[string]string{
		"collection_code": "CCX",
	})
	require.NoError(t, err)

	updated, err := env.isolates.Get(isolate.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AccessionNo)
	assert.Equal(t, fmt.Sprintf("CCX-MNH-%d", *isolate.Code), *updated.AccessionNo)
}

func TestOrganismRecodeCascades(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)

	organisms, err := env.catalog.Organisms.List()
	require.NoError(t, err)
	require.Len(t, organisms, 1)

	_, err = env.catalog.Organisms.Update(organisms[0].ID, map[string]string{
		"value": "90000",
	})
	require.NoError(t, err)

	updated, err := env.isolates.Get(isolate.ID)
	require.NoError(t, err)
	expectedCode := accession.Code(90000, int(isolate.ID))
	require.NotNil(t, updated.Code)
	assert.Equal(t, expectedCode, *updated.Code)
	require.NotNil(t, updated.AccessionNo)
	assert.Equal(t, fmt.Sprintf("MCC-MNH-%d", expectedCode), *updated.AccessionNo)
}

func TestReferenceInUseGuard(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)

	organisms, err := env.catalog.Organisms.List()
	require.NoError(t, err)
	organismID := organisms[0].ID

	t.Run("DeleteVetoedWhileReferenced", func(t *testing.T) {
		err := env.catalog.Organisms.Delete(organismID)
		requireAPIError(t, err, http.StatusBadRequest, "Organism is in use")
	})

	t.Run("DeleteSucceedsOnceFreed", func(t *testing.T) {
		require.NoError(t, env.isolates.Delete([]uint{isolate.ID}))
		require.NoError(t, env.catalog.Organisms.Delete(organismID))
	})

	t.Run("LocationInUseViaCaves", func(t *testing.T) {
		locations, err := env.catalog.Locations.List()
		require.NoError(t, err)
		require.Len(t, locations, 1)

		err = env.catalog.Locations.Delete(locations[0].ID)
		requireAPIError(t, err, http.StatusBadRequest, "Location is in use")

		caves, err := env.catalog.Caves.List()
		require.NoError(t, err)
		require.Len(t, caves, 1)
		// The cave is no longer referenced, so it can go, and the
		// location with it.
		require.NoError(t, env.catalog.Caves.Delete(caves[0].ID))
		require.NoError(t, env.catalog.Locations.Delete(locations[0].ID))
	})
}
