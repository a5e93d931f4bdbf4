package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/librarycentral/server/internal/api/testutils"
	"github.com/librarycentral/server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCreateEbook(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")

	// Test case 1: Successful creation
	ebook := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})
	assert.Equal(t, "Dune", ebook.Name)
	assert.Equal(t, []string{"Herbert"}, ebook.Authors)
	assert.Nil(t, ebook.IssuedTo)
	assert.Nil(t, ebook.DateIssued)
	assert.Nil(t, ebook.ReturnDate)

	// Test case 2: Duplicate name
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/librarian/ebooks",
		models.CreateEbookRequest{
			Name:      "Dune",
			Content:   "Another copy",
			Authors:   []string{"Herbert"},
			SectionID: section.ID,
		},
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "An e-book with the same name already exists", errResp.Msg)

	// Test case 3: Unknown section
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/librarian/ebooks",
		models.CreateEbookRequest{
			Name:      "Orphan",
			Content:   "No home",
			Authors:   []string{"Nobody"},
			SectionID: "00000000-0000-0000-0000-000000000000",
		},
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "Section does not exist", errResp.Msg)
}

func TestUpdateEbook(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	fiction := createSection(t, testCtx, "Fiction", "Novels")
	scifi := createSection(t, testCtx, "Science Fiction", "Space and time")
	ebook := createEbook(t, testCtx, "Dune", fiction.ID, []string{"Herbert"})

	// Move the ebook to a better section
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/librarian/ebooks/"+ebook.ID,
		models.UpdateEbookRequest{SectionID: scifi.ID},
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.EbookView
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.NotNil(t, updated.SectionID)
	assert.Equal(t, scifi.ID, *updated.SectionID)
	assert.Equal(t, "Dune", updated.Name)

	// Unknown target section
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/librarian/ebooks/"+ebook.ID,
		models.UpdateEbookRequest{SectionID: "00000000-0000-0000-0000-000000000000"},
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteEbookGuard(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")
	ebook := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})

	request := requestEbook(t, testCtx, testCtx.UserJWT, ebook.ID)
	w := setRequestStatus(testCtx, request.ID, models.RequestGranted)
	assert.Equal(t, http.StatusOK, w.Code)

	// Test case 1: Deleting an issued ebook fails
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/librarian/ebooks/"+ebook.ID,
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "Ebook is granted to a user", errResp.Msg)

	// Test case 2: After revoking the issuance the delete succeeds
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/librarian/ebooks/"+ebook.ID+"/revoke",
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var revoked models.EbookView
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &revoked))
	assert.Nil(t, revoked.IssuedTo)
	assert.Nil(t, revoked.DateIssued)
	assert.Nil(t, revoked.ReturnDate)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/librarian/ebooks/"+ebook.ID,
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRevokeEbookNotIssued(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")
	ebook := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/librarian/ebooks/"+ebook.ID+"/revoke",
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
