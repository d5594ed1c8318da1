package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libshelf/library-service/internal/auth"
	"github.com/libshelf/library-service/internal/database/memory"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/usecase"
)

// testAPI wires real usecases over the in-memory store behind the same
// routes the server registers.
type testAPI struct {
	server *httptest.Server
	store  *memory.Store
	tokens *auth.TokenManager
	users  usecase.UserService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := memory.NewStore()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("test-secret", 30*time.Minute, 168*time.Hour)

	clock := func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }

	catalogService := usecase.NewCatalogService(store, nil, logger)
	borrowingService := usecase.NewBorrowingService(store, nil, logger, clock)
	userService := usecase.NewUserService(store, logger)

	books := NewBookHandler(catalogService, logger)
	borrowings := NewBorrowingHandler(borrowingService, logger)
	users := NewUserHandler(userService, tokens, logger)
	authmw := NewAuthMiddleware(tokens, userService, logger)

	r := chi.NewRouter()
	r.Use(authmw.Authenticate)
	r.NotFound(NotFoundHandler(logger))
	r.MethodNotAllowed(MethodNotAllowedHandler(logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthcheck", Healthcheck(logger))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", books.List)
			r.Get("/{id}", books.Get)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireStaff)
				r.Post("/", books.Create)
				r.Put("/{id}", books.Update)
				r.Patch("/{id}", books.Update)
				r.Delete("/{id}", books.Delete)
			})
		})

		r.Route("/borrowings", func(r chi.Router) {
			r.Use(authmw.RequireUser)
			r.Post("/", borrowings.Create)
			r.Get("/", borrowings.List)
			r.Get("/{id}", borrowings.Get)
			r.Get("/{id}/return", borrowings.ReturnView)
			r.Put("/{id}/return", borrowings.Return)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", users.Register)
			r.Post("/token", users.Token)
			r.Post("/token/refresh", users.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireUser)
				r.Get("/me", users.Me)
				r.Put("/me", users.UpdateMe)
			})
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testAPI{
		server: server,
		store:  store,
		tokens: tokens,
		users:  userService,
	}
}

// seedAccount creates a user directly in the store and returns it with an
// access token.
func (api *testAPI) seedAccount(t *testing.T, email string, staff bool) (*domain.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Test",
		LastName:     "Account",
		PasswordHash: hash,
		IsStaff:      staff,
	}
	require.NoError(t, api.store.CreateUser(context.Background(), user))

	token, err := api.tokens.IssueAccess(user.ID)
	require.NoError(t, err)
	return user, token
}

func (api *testAPI) seedBook(t *testing.T, inventory int) *domain.Book {
	t.Helper()
	book := &domain.Book{
		ID:        uuid.New(),
		Title:     "Designing Data-Intensive Applications",
		Author:    "Martin Kleppmann",
		Cover:     domain.CoverHard,
		Inventory: inventory,
		DailyFee:  2.00,
	}
	require.NoError(t, api.store.CreateBook(context.Background(), book))
	return book
}

// do issues a request against the test server. A non-empty token is sent as
// a bearer credential.
func (api *testAPI) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, api.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := api.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp, decoded
}

func TestHealthcheck(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/v1/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"available"`, string(body["status"]))
}

func TestBooksAreReadableAnonymously(t *testing.T) {
	api := newTestAPI(t)
	book := api.seedBook(t, 2)

	resp, _ := api.do(t, http.MethodGet, "/v1/books", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := api.do(t, http.MethodGet, "/v1/books/"+book.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got domain.Book
	require.NoError(t, json.Unmarshal(body["book"], &got))
	assert.Equal(t, book.Title, got.Title)
}

func TestCatalogMutationRequiresStaff(t *testing.T) {
	api := newTestAPI(t)
	_, readerToken := api.seedAccount(t, "reader@example.com", false)
	_, staffToken := api.seedAccount(t, "staff@example.com", true)

	input := map[string]any{
		"title":     "The Mythical Man-Month",
		"author":    "Fred Brooks",
		"cover":     "SOFT",
		"inventory": 4,
		"daily_fee": 0.5,
	}

	resp, _ := api.do(t, http.MethodPost, "/v1/books", "", input)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/v1/books", readerToken, input)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := api.do(t, http.MethodPost, "/v1/books", staffToken, input)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.Book
	require.NoError(t, json.Unmarshal(body["book"], &created))
	assert.Equal(t, "The Mythical Man-Month", created.Title)
}

func TestCreateBookValidationResponse(t *testing.T) {
	api := newTestAPI(t)
	_, staffToken := api.seedAccount(t, "staff@example.com", true)

	resp, body := api.do(t, http.MethodPost, "/v1/books", staffToken, map[string]any{
		"title":     "",
		"author":    "Anonymous",
		"cover":     "SPIRAL",
		"inventory": 0,
		"daily_fee": 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(body["error"], &fields))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "cover")
	assert.Contains(t, fields, "inventory")
	assert.Contains(t, fields, "daily_fee")
}

func TestRegisterAndTokenFlow(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodPost, "/v1/users", "", map[string]any{
		"email":      "new@example.com",
		"first_name": "New",
		"last_name":  "Reader",
		"password":   "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered domain.User
	require.NoError(t, json.Unmarshal(body["user"], &registered))
	assert.False(t, registered.IsStaff)

	resp, body = api.do(t, http.MethodPost, "/v1/users/token", "", map[string]any{
		"email":    "new@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var access, refresh string
	require.NoError(t, json.Unmarshal(body["access"], &access))
	require.NoError(t, json.Unmarshal(body["refresh"], &refresh))

	resp, body = api.do(t, http.MethodGet, "/v1/users/me", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me domain.User
	require.NoError(t, json.Unmarshal(body["user"], &me))
	assert.Equal(t, registered.ID, me.ID)

	resp, body = api.do(t, http.MethodPost, "/v1/users/token/refresh", "", map[string]any{
		"refresh": refresh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access"])

	// a refresh token is not an access credential
	resp, _ = api.do(t, http.MethodGet, "/v1/users/me", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokenWithBadCredentials(t *testing.T) {
	api := newTestAPI(t)
	api.seedAccount(t, "reader@example.com", false)

	resp, _ := api.do(t, http.MethodPost, "/v1/users/token", "", map[string]any{
		"email":    "reader@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBorrowAndReturnOverAPI(t *testing.T) {
	api := newTestAPI(t)
	book := api.seedBook(t, 1)
	_, token := api.seedAccount(t, "reader@example.com", false)

	resp, body := api.do(t, http.MethodPost, "/v1/borrowings", token, map[string]any{
		"book_id":              book.ID,
		"borrow_date":          "2025-03-10",
		"expected_return_date": "2025-03-17",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var borrowing domain.Borrowing
	require.NoError(t, json.Unmarshal(body["borrowing"], &borrowing))
	assert.Nil(t, borrowing.ActualReturnDate)

	// the single copy is out
	resp, _ = api.do(t, http.MethodPost, "/v1/borrowings", token, map[string]any{
		"book_id":              book.ID,
		"borrow_date":          "2025-03-10",
		"expected_return_date": "2025-03-17",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	path := fmt.Sprintf("/v1/borrowings/%s/return", borrowing.ID)
	resp, body = api.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = api.do(t, http.MethodPut, path, token, map[string]any{
		"actual_return_date": "2025-03-12",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var returned domain.Borrowing
	require.NoError(t, json.Unmarshal(body["borrowing"], &returned))
	require.NotNil(t, returned.ActualReturnDate)
	assert.Equal(t, "2025-03-12", returned.ActualReturnDate.String())

	resp, _ = api.do(t, http.MethodPut, path, token, map[string]any{
		"actual_return_date": "2025-03-12",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBorrowingsAreInvisibleToOtherUsers(t *testing.T) {
	api := newTestAPI(t)
	book := api.seedBook(t, 2)
	_, ownerToken := api.seedAccount(t, "owner@example.com", false)
	_, otherToken := api.seedAccount(t, "other@example.com", false)
	_, staffToken := api.seedAccount(t, "staff@example.com", true)

	resp, body := api.do(t, http.MethodPost, "/v1/borrowings", ownerToken, map[string]any{
		"book_id":              book.ID,
		"borrow_date":          "2025-03-10",
		"expected_return_date": "2025-03-17",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var borrowing domain.Borrowing
	require.NoError(t, json.Unmarshal(body["borrowing"], &borrowing))

	resp, _ = api.do(t, http.MethodGet, "/v1/borrowings/"+borrowing.ID.String(), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(t, http.MethodGet, "/v1/borrowings/"+borrowing.ID.String(), staffToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// even staff cannot use another user's return endpoint
	resp, _ = api.do(t, http.MethodPut, "/v1/borrowings/"+borrowing.ID.String()+"/return", staffToken, map[string]any{
		"actual_return_date": "2025-03-12",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var list []domain.Borrowing
	resp, body = api.do(t, http.MethodGet, "/v1/borrowings?user_id="+borrowing.UserID.String(), otherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	if raw, ok := body["borrowings"]; ok && string(raw) != "null" {
		require.NoError(t, json.Unmarshal(raw, &list))
	}
	assert.Empty(t, list)
}

func TestInvalidBearerTokenRejected(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, http.MethodGet, "/v1/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body["error"]), "could not be found")
}

func TestMalformedJSONBody(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedAccount(t, "reader@example.com", false)

	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/v1/borrowings", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
