package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/librarycentral/server/internal/api/testutils"
	"github.com/librarycentral/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteUser(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Self-delete is forbidden regardless of state
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/librarian/user/"+testCtx.LibrarianID,
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "You cannot delete your own account", errResp.Msg)

	// Test case 2: Unknown user
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/librarian/user/00000000-0000-0000-0000-000000000000",
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 3: Successful delete of a user with no loans
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/librarian/user/"+testCtx.UserID,
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUserWithLoans(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")
	ebook := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})

	request := requestEbook(t, testCtx, testCtx.UserJWT, ebook.ID)
	w := setRequestStatus(testCtx, request.ID, models.RequestGranted)
	require.Equal(t, http.StatusOK, w.Code)

	// The user now holds a book, so deletion is refused
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/librarian/user/"+testCtx.UserID,
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "User has ebooks issued", errResp.Msg)

	// After the loan is revoked the delete goes through
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/librarian/ebooks/"+ebook.ID+"/revoke",
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/librarian/user/"+testCtx.UserID,
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitFeedback(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")
	ebook := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/user/feedback",
		models.SubmitFeedbackRequest{EbookID: ebook.ID, Rating: 5, Comment: "The spice must flow"},
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	// Rating outside 1..5
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/user/feedback",
		models.SubmitFeedbackRequest{EbookID: ebook.ID, Rating: 6, Comment: "Too good"},
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown ebook
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/user/feedback",
		models.SubmitFeedbackRequest{EbookID: "00000000-0000-0000-0000-000000000000", Rating: 3, Comment: "Never read it"},
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
