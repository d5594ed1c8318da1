// Package memory implements ports.Store with hashicorp/go-memdb. It backs
// the test suite and local development without a PostgreSQL instance.
// go-memdb serializes write transactions, which gives Atomic the same
// "at most one winner for the last copy" behavior as the row-locked
// PostgreSQL implementation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
)

const (
	tableBooks      = "books"
	tableUsers      = "users"
	tableBorrowings = "borrowings"
)

// Store is an in-memory ports.Store.
type Store struct {
	db *memdb.MemDB
}

func NewStore() (*Store, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableBooks: {
				Name: tableBooks,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"email": {
						Name:    "email",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email"},
					},
				},
			},
			tableBorrowings: {
				Name: tableBorrowings,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"user_id": {
						Name:    "user_id",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "UserID"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("initializing in-memory database: %w", err)
	}
	return &Store{db: db}, nil
}

// Record types hold string IDs so memdb's StringFieldIndex can index them.

type bookRecord struct {
	ID            string
	Title         string
	Author        string
	Cover         string
	Inventory     int
	DailyFee      float64
	CoverImageURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func toBookRecord(b *domain.Book) *bookRecord {
	return &bookRecord{
		ID:            b.ID.String(),
		Title:         b.Title,
		Author:        b.Author,
		Cover:         string(b.Cover),
		Inventory:     b.Inventory,
		DailyFee:      b.DailyFee,
		CoverImageURL: b.CoverImageURL,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (r *bookRecord) toDomain() domain.Book {
	return domain.Book{
		ID:            uuid.MustParse(r.ID),
		Title:         r.Title,
		Author:        r.Author,
		Cover:         domain.CoverType(r.Cover),
		Inventory:     r.Inventory,
		DailyFee:      r.DailyFee,
		CoverImageURL: r.CoverImageURL,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type userRecord struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func toUserRecord(u *domain.User) *userRecord {
	return &userRecord{
		ID:           u.ID.String(),
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		IsStaff:      u.IsStaff,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *userRecord) toDomain() domain.User {
	return domain.User{
		ID:           uuid.MustParse(r.ID),
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		IsStaff:      r.IsStaff,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type borrowingRecord struct {
	ID                 string
	BookID             string
	UserID             string
	BorrowDate         time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func toBorrowingRecord(b *domain.Borrowing) *borrowingRecord {
	r := &borrowingRecord{
		ID:                 b.ID.String(),
		BookID:             b.BookID.String(),
		UserID:             b.UserID.String(),
		BorrowDate:         b.BorrowDate.Time(),
		ExpectedReturnDate: b.ExpectedReturnDate.Time(),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.ActualReturnDate != nil {
		t := b.ActualReturnDate.Time()
		r.ActualReturnDate = &t
	}
	return r
}

func (r *borrowingRecord) toDomain() domain.Borrowing {
	b := domain.Borrowing{
		ID:                 uuid.MustParse(r.ID),
		BookID:             uuid.MustParse(r.BookID),
		UserID:             uuid.MustParse(r.UserID),
		BorrowDate:         domain.DateOf(r.BorrowDate),
		ExpectedReturnDate: domain.DateOf(r.ExpectedReturnDate),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.ActualReturnDate != nil {
		d := domain.DateOf(*r.ActualReturnDate)
		b.ActualReturnDate = &d
	}
	return b
}

func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	book.CreatedAt = time.Now().UTC()
	book.UpdatedAt = book.CreatedAt

	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tableBooks, toBookRecord(book)); err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *Store) GetBookByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	return getBook(txn, id)
}

func (s *Store) ListBooks(ctx context.Context, filter ports.BookFilter) ([]domain.Book, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableBooks, "id")
	if err != nil {
		return nil, fmt.Errorf("scanning books: %w", err)
	}

	var books []domain.Book
	for obj := it.Next(); obj != nil; obj = it.Next() {
		record := obj.(*bookRecord)
		if filter.Title != "" && !strings.Contains(strings.ToLower(record.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.Author != "" && !strings.Contains(strings.ToLower(record.Author), strings.ToLower(filter.Author)) {
			continue
		}
		if filter.Cover != "" && record.Cover != string(filter.Cover) {
			continue
		}
		books = append(books, record.toDomain())
	}

	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := getBook(txn, book.ID)
	if err != nil {
		return err
	}

	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = time.Now().UTC()
	if err := txn.Insert(tableBooks, toBookRecord(book)); err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(tableBooks, "id", id.String())
	if err != nil {
		return fmt.Errorf("looking up book: %w", err)
	}
	if obj == nil {
		return domain.ErrBookNotFound
	}
	if err := txn.Delete(tableBooks, obj); err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableUsers, "email", user.Email)
	if err != nil {
		return fmt.Errorf("checking email uniqueness: %w", err)
	}
	if existing != nil {
		return domain.ErrDuplicateEmail
	}

	if err := txn.Insert(tableUsers, toUserRecord(user)); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(tableUsers, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrUserNotFound
	}
	user := obj.(*userRecord).toDomain()
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(tableUsers, "email", email)
	if err != nil {
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrUserNotFound
	}
	user := obj.(*userRecord).toDomain()
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(tableUsers, "id", user.ID.String())
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}
	if obj == nil {
		return domain.ErrUserNotFound
	}

	if other, err := txn.First(tableUsers, "email", user.Email); err != nil {
		return fmt.Errorf("checking email uniqueness: %w", err)
	} else if other != nil && other.(*userRecord).ID != user.ID.String() {
		return domain.ErrDuplicateEmail
	}

	user.CreatedAt = obj.(*userRecord).CreatedAt
	user.UpdatedAt = time.Now().UTC()
	if err := txn.Insert(tableUsers, toUserRecord(user)); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *Store) GetBorrowingByID(ctx context.Context, id uuid.UUID) (*domain.Borrowing, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	return getBorrowing(txn, id)
}

func (s *Store) ListBorrowings(ctx context.Context, filter ports.BorrowingFilter) ([]domain.Borrowing, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	var it memdb.ResultIterator
	var err error
	if filter.UserID != uuid.Nil {
		it, err = txn.Get(tableBorrowings, "user_id", filter.UserID.String())
	} else {
		it, err = txn.Get(tableBorrowings, "id")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning borrowings: %w", err)
	}

	var borrowings []domain.Borrowing
	for obj := it.Next(); obj != nil; obj = it.Next() {
		record := obj.(*borrowingRecord)
		if filter.IsActive != nil {
			active := record.ActualReturnDate == nil
			if active != *filter.IsActive {
				continue
			}
		}
		borrowings = append(borrowings, record.toDomain())
	}

	sort.Slice(borrowings, func(i, j int) bool {
		return borrowings[i].CreatedAt.After(borrowings[j].CreatedAt)
	})
	return borrowings, nil
}

// Atomic runs fn inside a single memdb write transaction. Write transactions
// are serialized by memdb, so fn observes a stable snapshot and its writes
// commit all-or-nothing.
func (s *Store) Atomic(ctx context.Context, fn func(tx ports.TxStore) error) error {
	txn := s.db.Txn(true)
	if err := fn(&memTx{txn: txn}); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// memTx implements ports.TxStore over an open memdb write transaction.
type memTx struct {
	txn *memdb.Txn
}

func (t *memTx) GetBookForUpdate(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return getBook(t.txn, id)
}

func (t *memTx) SetBookInventory(ctx context.Context, id uuid.UUID, inventory int) error {
	book, err := getBook(t.txn, id)
	if err != nil {
		return err
	}

	book.Inventory = inventory
	book.UpdatedAt = time.Now().UTC()
	if err := t.txn.Insert(tableBooks, toBookRecord(book)); err != nil {
		return fmt.Errorf("updating book inventory: %w", err)
	}
	return nil
}

func (t *memTx) CreateBorrowing(ctx context.Context, borrowing *domain.Borrowing) error {
	borrowing.CreatedAt = time.Now().UTC()
	borrowing.UpdatedAt = borrowing.CreatedAt

	if err := t.txn.Insert(tableBorrowings, toBorrowingRecord(borrowing)); err != nil {
		return fmt.Errorf("inserting borrowing: %w", err)
	}
	return nil
}

func (t *memTx) GetBorrowingForUpdate(ctx context.Context, id uuid.UUID) (*domain.Borrowing, error) {
	return getBorrowing(t.txn, id)
}

func (t *memTx) CloseBorrowing(ctx context.Context, id uuid.UUID, returned domain.Date) error {
	borrowing, err := getBorrowing(t.txn, id)
	if err != nil {
		return err
	}
	if borrowing.ActualReturnDate != nil {
		return domain.ErrAlreadyReturned
	}

	borrowing.ActualReturnDate = &returned
	borrowing.UpdatedAt = time.Now().UTC()
	if err := t.txn.Insert(tableBorrowings, toBorrowingRecord(borrowing)); err != nil {
		return fmt.Errorf("closing borrowing: %w", err)
	}
	return nil
}

func getBook(txn *memdb.Txn, id uuid.UUID) (*domain.Book, error) {
	obj, err := txn.First(tableBooks, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("looking up book: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrBookNotFound
	}
	book := obj.(*bookRecord).toDomain()
	return &book, nil
}

func getBorrowing(txn *memdb.Txn, id uuid.UUID) (*domain.Borrowing, error) {
	obj, err := txn.First(tableBorrowings, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("looking up borrowing: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrBorrowingNotFound
	}
	borrowing := obj.(*borrowingRecord).toDomain()
	return &borrowing, nil
}
