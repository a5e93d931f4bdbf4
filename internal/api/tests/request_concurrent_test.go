package api_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/librarycentral/server/internal/api/testutils"
	"github.com/librarycentral/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two librarian grants race for the same ebook on behalf of different
// users. Exactly one may commit; the loser must observe a conflict and
// the winner's loan must be intact afterwards.
func TestConcurrentGrantSameEbook(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")
	ebook := createEbook(t, testCtx, "Dune", section.ID, []string{"Herbert"})

	// Ten different users all request the same ebook
	const numUsers = 10
	requestIDs := make([]string, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		username := fmt.Sprintf("reader%d", i)
		_, token := testutils.CreateTestAccount(
			t, testCtx.Repository, string(testCtx.JWTSecret),
			username, username+"@example.com", models.RoleUser)
		request := requestEbook(t, testCtx, token, ebook.ID)
		requestIDs = append(requestIDs, request.ID)
	}

	// Grant all of them at once
	codes := make(chan int, numUsers)
	var wg sync.WaitGroup

	for _, requestID := range requestIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			w := setRequestStatus(testCtx, id, models.RequestGranted)
			codes <- w.Code
		}(requestID)
	}

	wg.Wait()
	close(codes)

	granted := 0
	conflicts := 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			granted++
		case http.StatusBadRequest:
			conflicts++
		default:
			t.Errorf("unexpected status code %d", code)
		}
	}

	assert.Equal(t, 1, granted, "exactly one grant must win")
	assert.Equal(t, numUsers-1, conflicts, "every other grant must observe a conflict")

	// The winner holds the book and the loan invariant holds
	view, err := testCtx.Service.GetEbook(context.Background(), ebook.ID)
	require.NoError(t, err)
	require.NotNil(t, view.IssuedTo)
	require.NotNil(t, view.DateIssued)
	require.NotNil(t, view.ReturnDate)

	// Exactly one user-side loan record exists
	books, err := testCtx.Service.ListIssuedBooks(context.Background(), *view.IssuedTo)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

// A delete racing concurrent grants must never strand a loan: either
// the delete wins (and the grants conflict on a missing request chain)
// or a grant wins (and the delete reports the guard conflict).
func TestConcurrentDeleteAndGrant(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	section := createSection(t, testCtx, "Fiction", "Novels")

	const rounds = 5
	for i := 0; i < rounds; i++ {
		ebook := createEbook(t, testCtx, fmt.Sprintf("Dune %d", i), section.ID, []string{"Herbert"})
		request := requestEbook(t, testCtx, testCtx.UserJWT, ebook.ID)

		var wg sync.WaitGroup
		var grantCode, deleteCode int

		wg.Add(2)
		go func() {
			defer wg.Done()
			w := setRequestStatus(testCtx, request.ID, models.RequestGranted)
			grantCode = w.Code
		}()
		go func() {
			defer wg.Done()
			w := testutils.PerformRequest(
				testCtx.Router,
				http.MethodDelete,
				"/api/librarian/ebooks/"+ebook.ID,
				nil,
				testutils.AuthHeaders(testCtx.LibrarianJWT),
			)
			deleteCode = w.Code
		}()
		wg.Wait()

		view, err := testCtx.Service.GetEbook(context.Background(), ebook.ID)
		if grantCode == http.StatusOK && deleteCode == http.StatusBadRequest {
			// Grant won; the ebook survives with a holder
			require.NoError(t, err)
			assert.NotNil(t, view.IssuedTo)
		} else {
			// Delete won; the grant must not have half-applied
			assert.Equal(t, http.StatusOK, deleteCode)
			assert.NotEqual(t, http.StatusOK, grantCode)
			assert.Error(t, err)
		}
	}
}
