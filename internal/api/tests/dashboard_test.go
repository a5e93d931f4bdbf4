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

func TestLibrarianDashboard(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	fiction := createSection(t, testCtx, "Fiction", "Novels")
	createSection(t, testCtx, "Science", "Science books")
	dune := createEbook(t, testCtx, "Dune", fiction.ID, []string{"Herbert"})
	createEbook(t, testCtx, "Foundation", fiction.ID, []string{"Asimov"})
	createEbook(t, testCtx, "Hyperion", fiction.ID, []string{"Simmons"})

	request := requestEbook(t, testCtx, testCtx.UserJWT, dune.ID)
	w := setRequestStatus(testCtx, request.ID, models.RequestGranted)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/librarian/dashboard",
		nil,
		testutils.AuthHeaders(testCtx.LibrarianJWT),
	)

	require.Equal(t, http.StatusOK, w.Code)

	var stats models.LibrarianDashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))

	// The librarian account does not count as a user
	assert.Equal(t, 1, stats.UsersCount)
	assert.Equal(t, 2, stats.Sections)
	assert.Equal(t, 3, stats.Ebooks)
	assert.Equal(t, 1, stats.TotalBooksIssued)
	assert.Len(t, stats.Users, 2)

	// A regular user must not see it
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/librarian/dashboard",
		nil,
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserDashboard(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")
	dune := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})
	foundation := createEbook(t, testCtx, "Foundation", section.ID, []string{"Asimov"})

	duneRequest := requestEbook(t, testCtx, testCtx.UserJWT, dune.ID)
	requestEbook(t, testCtx, testCtx.UserJWT, foundation.ID)

	w := setRequestStatus(testCtx, duneRequest.ID, models.RequestGranted)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/user/feedback",
		models.SubmitFeedbackRequest{EbookID: dune.ID, Rating: 5, Comment: "A classic"},
		testutils.AuthHeaders(testCtx.UserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/user/dashboard",
		nil,
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	require.Equal(t, http.StatusOK, w.Code)

	var dashboard models.UserDashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))

	assert.Len(t, dashboard.RequestedBooks, 2)
	require.Len(t, dashboard.IssuedBooks, 1)
	assert.Equal(t, "Dune", dashboard.IssuedBooks[0].Name)
	assert.Equal(t, "Fiction", dashboard.IssuedBooks[0].SectionName)
	require.Len(t, dashboard.Feedback, 1)
	assert.Equal(t, "Dune", dashboard.Feedback[0].EbookName)
	assert.Equal(t, 5, dashboard.Feedback[0].Rating)
}

func TestIssuedBooksListing(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")
	dune := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})

	request := requestEbook(t, testCtx, testCtx.UserJWT, dune.ID)
	w := setRequestStatus(testCtx, request.ID, models.RequestGranted)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/user/issued-books",
		nil,
		testutils.AuthHeaders(testCtx.UserJWT),
	)

	require.Equal(t, http.StatusOK, w.Code)

	var books []models.EbookView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Name)
	assert.Equal(t, "Fiction", books[0].SectionName)
	require.NotNil(t, books[0].IssuedTo)
	assert.Equal(t, testCtx.UserID, *books[0].IssuedTo)
	assert.NotNil(t, books[0].DateIssued)
	assert.NotNil(t, books[0].ReturnDate)
}
