package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/librarycentral/server/internal/api/testutils"
	"github.com/librarycentral/server/internal/models"
	"github.com/stretchr/testify/require"
)

// createSection creates a section through the API as the librarian.
func createSection(t *testing.T, testCtx *testutils.TestContext, name, description string) models.Section {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/librarian/sections",
		models.CreateSectionRequest{Name: name, Description: description},
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code, "section creation failed: %s", w.Body.String())

	var section models.Section
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &section))
	require.NotEmpty(t, section.ID)
	return section
}

// createEbook creates an ebook through the API as the librarian.
func createEbook(t *testing.T, testCtx *testutils.TestContext, name, sectionID string, authors []string) models.EbookView {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/librarian/ebooks",
		models.CreateEbookRequest{
			Name:      name,
			Content:   "Full text of " + name,
			Authors:   authors,
			SectionID: sectionID,
		},
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code, "ebook creation failed: %s", w.Body.String())

	var ebook models.EbookView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ebook))
	require.NotEmpty(t, ebook.ID)
	return ebook
}

// requestEbook files a book request through the API with the given
// user token.
func requestEbook(t *testing.T, testCtx *testutils.TestContext, userJWT, ebookID string) models.BookRequest {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/user/requests",
		models.RequestEbookRequest{EbookID: ebookID},
		testutils.AuthHeaders(userJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code, "request creation failed: %s", w.Body.String())

	var request models.BookRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &request))
	require.NotEmpty(t, request.ID)
	return request
}

// setRequestStatus invokes the librarian status transition and returns
// the raw recorder so callers can assert on both outcomes.
func setRequestStatus(testCtx *testutils.TestContext, requestID, status string) *httptest.ResponseRecorder {
	return testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/librarian/requests/"+requestID,
		models.UpdateRequestStatusRequest{Status: status},
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)
}
