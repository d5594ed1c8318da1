package usecase

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
)

// fakeFileStorage records uploads without talking to object storage.
type fakeFileStorage struct {
	uploads map[string]string
}

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{uploads: make(map[string]string)}
}

func (f *fakeFileStorage) UploadFile(_ context.Context, key string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.uploads[key] = string(data)
	return "https://covers.test/" + key, nil
}

func (f *fakeFileStorage) DeleteFile(_ context.Context, key string) error {
	delete(f.uploads, key)
	return nil
}

func validCreateInput() CreateBookInput {
	return CreateBookInput{
		Title:     "Clean Architecture",
		Author:    "Robert C. Martin",
		Cover:     domain.CoverSoft,
		Inventory: 3,
		DailyFee:  0.75,
	}
}

func TestCreateBook(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	book, err := svc.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, book.ID)
	assert.Equal(t, "Clean Architecture", book.Title)
	assert.Equal(t, 3, book.Inventory)

	stored, err := svc.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, stored.ID)
}

func TestCreateBookValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	tests := []struct {
		name   string
		mutate func(*CreateBookInput)
		field  string
	}{
		{"missing title", func(in *CreateBookInput) { in.Title = "" }, "title"},
		{"title too long", func(in *CreateBookInput) { in.Title = strings.Repeat("x", 256) }, "title"},
		{"missing author", func(in *CreateBookInput) { in.Author = "" }, "author"},
		{"bad cover", func(in *CreateBookInput) { in.Cover = "SPIRAL" }, "cover"},
		{"zero inventory", func(in *CreateBookInput) { in.Inventory = 0 }, "inventory"},
		{"zero fee", func(in *CreateBookInput) { in.DailyFee = 0 }, "daily_fee"},
		{"negative fee", func(in *CreateBookInput) { in.DailyFee = -1 }, "daily_fee"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)

			_, err := svc.CreateBook(context.Background(), input)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tc.field)
		})
	}
}

func TestUpdateBookPartial(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	book, err := svc.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	newTitle := "Clean Architecture, 2nd ed."
	zero := 0
	updated, err := svc.UpdateBook(context.Background(), book.ID, UpdateBookInput{
		Title:     &newTitle,
		Inventory: &zero,
	})
	require.NoError(t, err)

	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, 0, updated.Inventory)
	// untouched fields keep their values
	assert.Equal(t, book.Author, updated.Author)
	assert.Equal(t, book.DailyFee, updated.DailyFee)
}

func TestUpdateBookRejectsNegativeInventory(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	book, err := svc.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	negative := -1
	_, err = svc.UpdateBook(context.Background(), book.ID, UpdateBookInput{Inventory: &negative})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "inventory")
}

func TestUpdateBookNotFound(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	title := "whatever"
	_, err := svc.UpdateBook(context.Background(), uuid.New(), UpdateBookInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestListBooksFilter(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	first := validCreateInput()
	_, err := svc.CreateBook(context.Background(), first)
	require.NoError(t, err)

	second := validCreateInput()
	second.Title = "The Pragmatic Programmer"
	second.Author = "Hunt, Thomas"
	second.Cover = domain.CoverHard
	_, err = svc.CreateBook(context.Background(), second)
	require.NoError(t, err)

	got, err := svc.ListBooks(context.Background(), ports.BookFilter{Title: "pragmatic"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.Title, got[0].Title)

	got, err = svc.ListBooks(context.Background(), ports.BookFilter{Cover: domain.CoverSoft})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.Title, got[0].Title)

	_, err = svc.ListBooks(context.Background(), ports.BookFilter{Cover: "SPIRAL"})
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestDeleteBook(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	book, err := svc.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(context.Background(), book.ID))

	_, err = svc.GetBook(context.Background(), book.ID)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	err = svc.DeleteBook(context.Background(), book.ID)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestAttachCoverImage(t *testing.T) {
	store := newTestStore(t)
	files := newFakeFileStorage()
	svc := NewCatalogService(store, files, testLogger())

	book, err := svc.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	updated, err := svc.AttachCoverImage(context.Background(), book.ID, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	wantKey := "covers/" + book.ID.String()
	assert.Equal(t, "https://covers.test/"+wantKey, updated.CoverImageURL)
	assert.Equal(t, "png-bytes", files.uploads[wantKey])

	stored, err := svc.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.CoverImageURL, stored.CoverImageURL)
}

func TestAttachCoverImageWithoutStorage(t *testing.T) {
	store := newTestStore(t)
	svc := NewCatalogService(store, nil, testLogger())

	book, err := svc.CreateBook(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = svc.AttachCoverImage(context.Background(), book.ID, strings.NewReader("png-bytes"), "image/png")
	assert.Error(t, err)
}
