package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cavemicro/isolate-api/accession"
	"github.com/cavemicro/isolate-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsolateCreate(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	t.Run("DerivesCodeAndAccession", func(t *testing.T) {
		isolate, err := env.isolates.Create(newCreateIsolateRequest())
		require.NoError(t, err)

		require.NotNil(t, isolate.Code)
		require.NotNil(t, isolate.AccessionNo)
		expectedCode := accession.Code(50000, int(isolate.ID))
		assert.Equal(t, expectedCode, *isolate.Code)
		assert.Equal(t, fmt.Sprintf("MCC-MNH-%d", expectedCode), *isolate.AccessionNo)

		// References come back loaded.
		assert.Equal(t, "Bacteria", isolate.Organism.OrganismType)
		assert.Equal(t, "Deer Cave", isolate.Cave.CaveName)
		assert.Equal(t, "Mulu", isolate.Cave.Location.Town)
	})

	t.Run("MissingRequiredField", func(t *testing.T) {
		req := newCreateIsolateRequest()
		req.Genus = ""
		_, err := env.isolates.Create(req)
		requireAPIError(t, err, http.StatusBadRequest, "missing required fields")
	})

	t.Run("InvalidAccessLevel", func(t *testing.T) {
		req := newCreateIsolateRequest()
		req.AccessLevel = "Secret"
		_, err := env.isolates.Create(req)
		requireAPIError(t, err, http.StatusBadRequest, "invalid access level")
	})

	t.Run("UnresolvedReferencesReportedInOrder", func(t *testing.T) {
		req := newCreateIsolateRequest()
		req.CaveName = "No Such Cave"
		req.OrganismType = "No Such Organism"
		_, err := env.isolates.Create(req)
		requireAPIError(t, err, http.StatusNotFound, "Organism, Cave not found")
	})
}

func TestIsolateUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)

	t.Run("EmptyRequest", func(t *testing.T) {
		err := env.isolates.Update(isolate.ID, &models.UpdateIsolateRequest{})
		requireAPIError(t, err, http.StatusBadRequest, "no updatable field supplied")
	})

	t.Run("LiteralField", func(t *testing.T) {
		genus := "Nocardia"
		require.NoError(t, env.isolates.Update(isolate.ID, &models.UpdateIsolateRequest{Genus: &genus}))

		updated, err := env.isolates.Get(isolate.ID)
		require.NoError(t, err)
		assert.Equal(t, "Nocardia", updated.Genus)
		// Untouched fields survive.
		assert.Equal(t, "cavernae", updated.Species)
	})

	t.Run("UnknownReference", func(t *testing.T) {
		sample := "No Such Sample"
		err := env.isolates.Update(isolate.ID, &models.UpdateIsolateRequest{SampleType: &sample})
		requireAPIError(t, err, http.StatusNotFound, "Sample not found")
	})

	t.Run("OrganismChangeRecodes", func(t *testing.T) {
		_, err := env.catalog.Organisms.Create(map[string]string{
			"organism_type": "Fungi", "value": "70000",
		})
		require.NoError(t, err)

		organismType := "Fungi"
		require.NoError(t, env.isolates.Update(isolate.ID, &models.UpdateIsolateRequest{OrganismType: &organismType}))

		updated, err := env.isolates.Get(isolate.ID)
		require.NoError(t, err)
		expectedCode := accession.Code(70000, int(isolate.ID))
		require.NotNil(t, updated.Code)
		assert.Equal(t, expectedCode, *updated.Code)
		require.NotNil(t, updated.AccessionNo)
		assert.Equal(t, fmt.Sprintf("MCC-MNH-%d", expectedCode), *updated.AccessionNo)
	})

	t.Run("UnknownIsolate", func(t *testing.T) {
		genus := "Nocardia"
		err := env.isolates.Update(9999, &models.UpdateIsolateRequest{Genus: &genus})
		requireAPIError(t, err, http.StatusNotFound, "Isolate not found")
	})
}

// TestIsolateUpdateRecodeLoadFailure covers the organism-recode path when
// the institution reload fails for a reason other than a missing row: the
// update must fail outright instead of rewriting the code and leaving the
// accession stale.
func TestIsolateUpdateRecodeLoadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)
	originalAccession := *isolate.AccessionNo
	originalCode := *isolate.Code

	_, err = env.catalog.Organisms.Create(map[string]string{
		"organism_type": "Fungi", "value": "70000",
	})
	require.NoError(t, err)

	// Fail only the single-row institution load; preloads and every other
	// query stay healthy.
	require.NoError(t, env.db.Callback().Query().Before("gorm:query").Register("fail_institution_load", func(db *gorm.DB) {
		if _, ok := db.Statement.Dest.(*models.Institution); ok {
			db.AddError(errors.New("storage offline"))
		}
	}))

	organismType := "Fungi"
	err = env.isolates.Update(isolate.ID, &models.UpdateIsolateRequest{OrganismType: &organismType})
	requireAPIError(t, err, http.StatusInternalServerError, "failed to load institution")

	require.NoError(t, env.db.Callback().Query().Remove("fail_institution_load"))

	// Nothing was written: code and accession still agree.
	loaded, err := env.isolates.Get(isolate.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Code)
	require.NotNil(t, loaded.AccessionNo)
	assert.Equal(t, originalCode, *loaded.Code)
	assert.Equal(t, originalAccession, *loaded.AccessionNo)
}

func TestIsolateDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	first, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)
	second, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)

	t.Run("EmptyIDList", func(t *testing.T) {
		err := env.isolates.Delete(nil)
		requireAPIError(t, err, http.StatusBadRequest, "no isolate ids supplied")
	})

	t.Run("MissingIDVetoesTheWholeBatch", func(t *testing.T) {
		err := env.isolates.Delete([]uint{first.ID, 999})
		requireAPIError(t, err, http.StatusNotFound, "isolates not found: 999")

		// Nothing was deleted.
		rows, listErr := env.isolates.List(nil)
		require.NoError(t, listErr)
		assert.Len(t, rows, 2)
	})

	t.Run("DeletesAllListed", func(t *testing.T) {
		require.NoError(t, env.isolates.Delete([]uint{first.ID, second.ID}))

		rows, err := env.isolates.List(nil)
		require.NoError(t, err)
		assert.Empty(t, rows)

		_, err = env.isolates.Get(first.ID)
		requireAPIError(t, err, http.StatusNotFound, "Isolate not found")
	})
}

func TestIsolateVisibilityFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	for _, level := range []string{"Public", "Limited", "Restricted"} {
		req := newCreateIsolateRequest()
		req.AccessLevel = level
		_, err := env.isolates.Create(req)
		require.NoError(t, err)
	}

	t.Run("PublicOnly", func(t *testing.T) {
		rows, err := env.isolates.List([]models.AccessLevel{models.AccessLevelPublic})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, models.AccessLevelPublic, rows[0].AccessLevel)
	})

	t.Run("PublicAndLimited", func(t *testing.T) {
		rows, err := env.isolates.List([]models.AccessLevel{models.AccessLevelPublic, models.AccessLevelLimited})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("NilMeansUnrestricted", func(t *testing.T) {
		rows, err := env.isolates.List(nil)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}

func TestIsolateSearch(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)

	t.Run("ByAccession", func(t *testing.T) {
		rows, err := env.isolates.Search(map[string]string{"accession_no": *isolate.AccessionNo}, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, isolate.ID, rows[0].ID)
	})

	t.Run("ByGenusSubstring", func(t *testing.T) {
		rows, err := env.isolates.Search(map[string]string{"genus": "strepto"}, nil)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("VisibilityApplies", func(t *testing.T) {
		rows, err := env.isolates.Search(
			map[string]string{"genus": "strepto"},
			[]models.AccessLevel{models.AccessLevelLimited},
		)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("NoSearchField", func(t *testing.T) {
		_, err := env.isolates.Search(map[string]string{}, nil)
		requireAPIError(t, err, http.StatusBadRequest, "no search field supplied")
	})
}

func TestIsolateSetImageRef(t *testing.T) {
	env := newTestEnv(t)
	env.seedReferences(t)

	isolate, err := env.isolates.Create(newCreateIsolateRequest())
	require.NoError(t, err)

	ref := "memory://isolates/1/abc.png"
	require.NoError(t, env.isolates.SetImageRef(isolate.ID, &ref))
	loaded, err := env.isolates.Get(isolate.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.ImageRef)
	assert.Equal(t, ref, *loaded.ImageRef)

	require.NoError(t, env.isolates.SetImageRef(isolate.ID, nil))
	loaded, err = env.isolates.Get(isolate.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.ImageRef)
}
