package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finman/internal/cache"
	"finman/internal/core"
	applog "finman/internal/log"
	"finman/internal/storage"
)

var (
	ErrSamePerson            = errors.New("sender and receiver are the same person")
	ErrPersonNotFound        = errors.New("person not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrNoInterPersonCategory = errors.New("inter-person category is missing")
)

// Store is the subset of the connector the service runs on.
type Store interface {
	State() storage.State
	CreateTables(ctx context.Context) error
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Scalar(ctx context.Context, query string, args ...any) (any, bool, error)
	FetchTable(ctx context.Context, query string, args ...any) (*storage.Table, error)
}

var _ Store = (*storage.Connector)(nil)

// NewTransfer is a transfer row before the store assigns its id.
type NewTransfer struct {
	PersonID    int
	CategoryID  int
	Description string
	Amount      float64
	Date        core.Date
}

// PairedTransfer holds the two rows written by AddPersonTransfer.
type PairedTransfer struct {
	OutgoingID int
	IncomingID int
}

// compensationTimeout bounds the delete that undoes a half-written paired
// transfer.
const compensationTimeout = 10 * time.Second

const (
	snapshotPeople     = "people"
	snapshotCategories = "categories"
	snapshotTransfers  = "transfers"
)

const (
	listPeopleQuery = `
		SELECT p.person_id, p.person_name, COALESCE(SUM(t.amount), 0) AS total
		FROM person p
		LEFT JOIN transfer t ON t.person_id = p.person_id
		GROUP BY p.person_id, p.person_name
		ORDER BY p.person_id`

	listCategoriesQuery = `
		SELECT category_id, category_name
		FROM category
		ORDER BY category_id`

	categoryTotalsQuery = `
		SELECT c.category_name, COALESCE(SUM(t.amount), 0) AS total
		FROM transfer t
		LEFT JOIN person p ON p.person_id = t.person_id
		LEFT JOIN category c ON c.category_id = t.category_id
		GROUP BY c.category_name
		ORDER BY c.category_name`

	personBalanceQuery = `SELECT COALESCE(SUM(amount), 0) FROM transfer WHERE person_id = $1`
	personNameQuery    = `SELECT person_name FROM person WHERE person_id = $1`
	categoryIDQuery    = `SELECT category_id FROM category WHERE category_name = $1`

	insertPersonQuery   = `INSERT INTO person (person_name) VALUES ($1) RETURNING person_id`
	insertCategoryQuery = `INSERT INTO category (category_name) VALUES ($1) RETURNING category_id`
	insertTransferQuery = `
		INSERT INTO transfer (person_id, category_id, description, amount, done_at)
		VALUES ($1, $2, $3, $4, $5::date)
		RETURNING transfer_id`

	deletePersonQuery   = `DELETE FROM person WHERE person_id = $1`
	deleteTransferQuery = `DELETE FROM transfer WHERE transfer_id = $1`
	deleteCategoryQuery = `DELETE FROM category WHERE category_name = $1`
)

// Service exposes the finance records on top of a Store. Each list
// operation replaces its snapshot wholesale; writes leave snapshots as they
// are until the caller lists again.
type Service struct {
	store     Store
	snapshots *cache.Store[*storage.Table]
}

func NewService(store Store) *Service {
	return &Service{
		store:     store,
		snapshots: cache.NewStore[*storage.Table](),
	}
}

// State reports the connector state.
func (s *Service) State() storage.State {
	return s.store.State()
}

// CreateTables recreates the schema, discarding every record.
func (s *Service) CreateTables(ctx context.Context) error {
	return s.store.CreateTables(ctx)
}

func (s *Service) People() *storage.Table     { return s.snapshot(snapshotPeople) }
func (s *Service) Categories() *storage.Table { return s.snapshot(snapshotCategories) }
func (s *Service) Transfers() *storage.Table  { return s.snapshot(snapshotTransfers) }

func (s *Service) snapshot(key string) *storage.Table {
	if t, ok := s.snapshots.Get(key); ok {
		return t
	}
	return &storage.Table{}
}

// ListPeople fetches every person with the sum of their transfers.
func (s *Service) ListPeople(ctx context.Context) (*storage.Table, error) {
	return s.list(ctx, snapshotPeople, listPeopleQuery)
}

// ListCategories fetches every category.
func (s *Service) ListCategories(ctx context.Context) (*storage.Table, error) {
	return s.list(ctx, snapshotCategories, listCategoriesQuery)
}

// ListTransfers fetches every transfer with its person name and the date
// formatted as DD-MM-YYYY.
func (s *Service) ListTransfers(ctx context.Context) (*storage.Table, error) {
	return s.list(ctx, snapshotTransfers, listTransfersQuery)
}

func (s *Service) list(ctx context.Context, key, query string) (*storage.Table, error) {
	table, err := s.store.FetchTable(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}
	s.snapshots.Set(key, table)

	s.logger(ctx).DebugContext(ctx, "Snapshot replaced",
		applog.FieldOperation, applog.OpList,
		applog.FieldTable, key,
		applog.FieldRows, table.Len())
	return table, nil
}

// FindTransfers returns the transfers matching every criterion in f. It does
// not touch the snapshots.
func (s *Service) FindTransfers(ctx context.Context, f TransferFilter) (*storage.Table, error) {
	query, args, err := buildTransferQuery(f)
	if err != nil {
		return nil, err
	}

	table, err := s.store.FetchTable(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find transfers: %w", err)
	}

	s.logger(ctx).DebugContext(ctx, "Transfers filtered",
		applog.FieldOperation, applog.OpList,
		applog.FieldFilter, f.String(),
		applog.FieldRows, table.Len())
	return table, nil
}

// CategoryTotals sums transfer amounts per category name.
func (s *Service) CategoryTotals(ctx context.Context) (*storage.Table, error) {
	table, err := s.store.FetchTable(ctx, categoryTotalsQuery)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}

	s.logger(ctx).DebugContext(ctx, "Totals computed",
		applog.FieldOperation, applog.OpReport,
		applog.FieldRows, table.Len())
	return table, nil
}

// PersonBalance sums the amounts of one person's transfers, 0 when there
// are none.
func (s *Service) PersonBalance(ctx context.Context, personID int) (float64, error) {
	v, ok, err := s.store.Scalar(ctx, personBalanceQuery, personID)
	if err != nil {
		return 0, fmt.Errorf("person balance: %w", err)
	}
	if !ok {
		return 0, nil
	}
	total, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("person balance: unexpected value %T", v)
	}
	return total, nil
}

// AddPerson inserts a person and returns the assigned id.
func (s *Service) AddPerson(ctx context.Context, name string) (int, error) {
	id, err := s.insert(ctx, insertPersonQuery, name)
	if err != nil {
		return 0, fmt.Errorf("add person: %w", err)
	}
	s.logger(ctx).DebugContext(ctx, "Person added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldPersonID, id)
	return id, nil
}

// AddCategory inserts a category and returns the assigned id.
func (s *Service) AddCategory(ctx context.Context, name string) (int, error) {
	id, err := s.insert(ctx, insertCategoryQuery, name)
	if err != nil {
		return 0, fmt.Errorf("add category: %w", err)
	}
	s.logger(ctx).DebugContext(ctx, "Category added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldCategoryID, id)
	return id, nil
}

// AddTransfer inserts a transfer and returns the assigned id. Only the
// store's own constraints are applied.
func (s *Service) AddTransfer(ctx context.Context, t NewTransfer) (int, error) {
	id, err := s.insert(ctx, insertTransferQuery,
		t.PersonID, t.CategoryID, t.Description, t.Amount, t.Date.ISO())
	if err != nil {
		return 0, fmt.Errorf("add transfer: %w", err)
	}
	s.logger(ctx).DebugContext(ctx, "Transfer added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldTransferID, id,
		applog.FieldPersonID, t.PersonID,
		applog.FieldCategoryID, t.CategoryID)
	return id, nil
}

func (s *Service) insert(ctx context.Context, query string, args ...any) (int, error) {
	v, ok, err := s.store.Scalar(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.New("no id returned")
	}
	id, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
	return int(id), nil
}

// RemovePeople deletes the people one by one, their transfers cascading with
// them. It stops at the first failure; earlier deletions stay committed.
func (s *Service) RemovePeople(ctx context.Context, ids []int) error {
	return s.removeEach(ctx, "person", deletePersonQuery, ids)
}

// RemoveTransfers deletes the transfers one by one and stops at the first
// failure.
func (s *Service) RemoveTransfers(ctx context.Context, ids []int) error {
	return s.removeEach(ctx, "transfer", deleteTransferQuery, ids)
}

func (s *Service) removeEach(ctx context.Context, kind, query string, ids []int) error {
	var removed int64
	for _, id := range ids {
		n, err := s.store.Exec(ctx, query, id)
		if err != nil {
			return fmt.Errorf("remove %s %d: %w", kind, id, err)
		}
		removed += n
	}

	s.logger(ctx).DebugContext(ctx, "Rows removed",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTable, kind,
		applog.FieldRows, removed)
	return nil
}

// RemoveCategory deletes a category by name along with its transfers. An
// unknown name removes nothing and is not an error.
func (s *Service) RemoveCategory(ctx context.Context, name string) error {
	n, err := s.store.Exec(ctx, deleteCategoryQuery, name)
	if err != nil {
		return fmt.Errorf("remove category: %w", err)
	}
	s.logger(ctx).DebugContext(ctx, "Rows removed",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTable, "category",
		applog.FieldRows, n)
	return nil
}

// AddPersonTransfer moves amount from one person to another as two rows in
// the inter-person category: -amount for the sender and +amount for the
// receiver. When the second insert fails the first row is deleted again.
func (s *Service) AddPersonTransfer(ctx context.Context, fromID, toID int, amount float64, date core.Date) (PairedTransfer, error) {
	if fromID == toID {
		return PairedTransfer{}, ErrSamePerson
	}
	if amount <= 0 {
		return PairedTransfer{}, core.ErrInvalidAmount
	}

	fromName, err := s.personName(ctx, fromID)
	if err != nil {
		return PairedTransfer{}, err
	}
	toName, err := s.personName(ctx, toID)
	if err != nil {
		return PairedTransfer{}, err
	}
	categoryID, err := s.interPersonCategory(ctx)
	if err != nil {
		return PairedTransfer{}, err
	}

	outID, err := s.AddTransfer(ctx, NewTransfer{
		PersonID:    fromID,
		CategoryID:  categoryID,
		Description: "Transfer to " + toName,
		Amount:      -amount,
		Date:        date,
	})
	if err != nil {
		return PairedTransfer{}, err
	}

	inID, err := s.AddTransfer(ctx, NewTransfer{
		PersonID:    toID,
		CategoryID:  categoryID,
		Description: "Transfer from " + fromName,
		Amount:      amount,
		Date:        date,
	})
	if err != nil {
		s.logger(ctx).WarnContext(ctx, "Rolling back outgoing transfer",
			applog.FieldTransferID, outID,
			applog.FieldError, err)
		// The insert most likely failed because ctx ended; the undo must
		// still reach the database.
		undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		defer cancel()
		if rmErr := s.RemoveTransfers(undoCtx, []int{outID}); rmErr != nil {
			return PairedTransfer{}, errors.Join(err, fmt.Errorf("compensate: %w", rmErr))
		}
		return PairedTransfer{}, err
	}

	return PairedTransfer{OutgoingID: outID, IncomingID: inID}, nil
}

func (s *Service) personName(ctx context.Context, id int) (string, error) {
	v, ok, err := s.store.Scalar(ctx, personNameQuery, id)
	if err != nil {
		return "", fmt.Errorf("look up person %d: %w", id, err)
	}
	name, isString := v.(string)
	if !ok || !isString {
		return "", fmt.Errorf("%w: %d", ErrPersonNotFound, id)
	}
	return name, nil
}

func (s *Service) interPersonCategory(ctx context.Context) (int, error) {
	v, ok, err := s.store.Scalar(ctx, categoryIDQuery, core.CategoryInterPerson)
	if err != nil {
		return 0, fmt.Errorf("look up inter-person category: %w", err)
	}
	id, isInt := v.(int64)
	if !ok || !isInt {
		return 0, ErrNoInterPersonCategory
	}
	return int(id), nil
}

func (s *Service) logger(ctx context.Context) *applog.Logger {
	return applog.ComponentFromContext(ctx, applog.ComponentRecords)
}
