package records

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finman/internal/core"
	"finman/internal/storage"
)

type call struct {
	query string
	args  []any
}

type fakeStore struct {
	state   storage.State
	calls   []call
	exec    func(query string, args []any) (int64, error)
	scalar  func(query string, args []any) (any, bool, error)
	fetch   func(query string, args []any) (*storage.Table, error)
	created bool
}

func (f *fakeStore) State() storage.State { return f.state }

func (f *fakeStore) CreateTables(ctx context.Context) error {
	f.created = true
	f.state = storage.StateCorrect
	return nil
}

func (f *fakeStore) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.calls = append(f.calls, call{query, args})
	if f.exec == nil {
		return 1, nil
	}
	return f.exec(query, args)
}

func (f *fakeStore) Scalar(ctx context.Context, query string, args ...any) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	f.calls = append(f.calls, call{query, args})
	if f.scalar == nil {
		return nil, false, nil
	}
	return f.scalar(query, args)
}

func (f *fakeStore) FetchTable(ctx context.Context, query string, args ...any) (*storage.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, call{query, args})
	if f.fetch == nil {
		return &storage.Table{Columns: []string{"x"}, Rows: [][]any{}}, nil
	}
	return f.fetch(query, args)
}

func TestSnapshotsReplacedOnlyByReads(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()

	if svc.People().Len() != 0 || svc.Categories().Len() != 0 || svc.Transfers().Len() != 0 {
		t.Fatal("snapshots should be empty before the first fetch")
	}

	people := &storage.Table{Columns: []string{"person_id"}, Rows: [][]any{{int64(1)}}}
	store.fetch = func(string, []any) (*storage.Table, error) { return people, nil }
	if _, err := svc.ListPeople(ctx); err != nil {
		t.Fatalf("ListPeople failed: %v", err)
	}
	if svc.People() != people {
		t.Fatal("People snapshot should be the fetched table")
	}

	store.scalar = func(string, []any) (any, bool, error) { return int64(2), true, nil }
	if _, err := svc.AddPerson(ctx, "Boris"); err != nil {
		t.Fatalf("AddPerson failed: %v", err)
	}
	if svc.People() != people {
		t.Error("writes must not refresh the snapshot")
	}

	store.fetch = func(string, []any) (*storage.Table, error) { return &storage.Table{}, nil }
	if _, err := svc.FindTransfers(ctx, TransferFilter{}.ByPerson(1)); err != nil {
		t.Fatalf("FindTransfers failed: %v", err)
	}
	if svc.Transfers().Len() != 0 || svc.People() != people {
		t.Error("FindTransfers must not touch the snapshots")
	}
}

func TestListErrorKeepsSnapshot(t *testing.T) {
	categories := &storage.Table{Columns: []string{"category_id"}, Rows: [][]any{{int64(1)}}}
	store := &fakeStore{fetch: func(string, []any) (*storage.Table, error) { return categories, nil }}
	svc := NewService(store)
	ctx := context.Background()

	if _, err := svc.ListCategories(ctx); err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}

	boom := errors.New("connection reset")
	store.fetch = func(string, []any) (*storage.Table, error) { return nil, boom }
	if _, err := svc.ListCategories(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if svc.Categories() != categories {
		t.Error("a failed read should leave the previous snapshot in place")
	}
}

func TestFindTransfersRejectsEmptyFilter(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	if _, err := svc.FindTransfers(context.Background(), TransferFilter{}); !errors.Is(err, ErrEmptyFilter) {
		t.Fatalf("expected ErrEmptyFilter, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("no statement should run, got %d", len(store.calls))
	}
}

func TestRemoveStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("deadlock detected")
	store := &fakeStore{exec: func(_ string, args []any) (int64, error) {
		if args[0] == 2 {
			return 0, boom
		}
		return 1, nil
	}}
	svc := NewService(store)

	err := svc.RemoveTransfers(context.Background(), []int{1, 2, 3})
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated error, got %v", err)
	}
	if len(store.calls) != 2 {
		t.Fatalf("expected 2 deletes before stopping, got %d", len(store.calls))
	}
	for i, c := range store.calls {
		if !strings.Contains(c.query, "DELETE FROM transfer") || c.args[0] != i+1 {
			t.Errorf("call %d: unexpected %q %v", i, c.query, c.args)
		}
	}
}

func TestRemoveCategoryUnknownIsNoop(t *testing.T) {
	store := &fakeStore{exec: func(string, []any) (int64, error) { return 0, nil }}
	svc := NewService(store)

	if err := svc.RemoveCategory(context.Background(), "Nope"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAddTransferBindsISODate(t *testing.T) {
	store := &fakeStore{scalar: func(string, []any) (any, bool, error) { return int64(7), true, nil }}
	svc := NewService(store)

	id, err := svc.AddTransfer(context.Background(), NewTransfer{
		PersonID:    1,
		CategoryID:  2,
		Description: "Groceries",
		Amount:      -12.5,
		Date:        core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("AddTransfer failed: %v", err)
	}
	if id != 7 {
		t.Errorf("expected id 7, got %d", id)
	}

	args := store.calls[0].args
	if len(args) != 5 || args[4] != "2024-03-05" {
		t.Errorf("unexpected arguments %v", args)
	}
}

func TestPersonBalance(t *testing.T) {
	store := &fakeStore{scalar: func(string, []any) (any, bool, error) { return 9.75, true, nil }}
	svc := NewService(store)

	total, err := svc.PersonBalance(context.Background(), 1)
	if err != nil || total != 9.75 {
		t.Fatalf("expected 9.75, got %v (err=%v)", total, err)
	}

	store.scalar = func(string, []any) (any, bool, error) { return nil, false, nil }
	total, err = svc.PersonBalance(context.Background(), 1)
	if err != nil || total != 0 {
		t.Fatalf("expected 0 for absent value, got %v (err=%v)", total, err)
	}
}

// pairStore answers the lookups AddPersonTransfer makes and fails the insert
// with the given ordinal, calling onFail first when set. Like the real
// connector, the fake refuses statements on a done context.
func pairStore(failInsert int, onFail func()) *fakeStore {
	inserts := 0
	store := &fakeStore{}
	store.scalar = func(query string, args []any) (any, bool, error) {
		switch {
		case strings.Contains(query, "FROM person"):
			name, ok := map[int]string{1: "Anna", 2: "Boris"}[args[0].(int)]
			return name, ok, nil
		case strings.Contains(query, "FROM category"):
			return int64(1), true, nil
		case strings.Contains(query, "INSERT INTO transfer"):
			inserts++
			if inserts == failInsert {
				if onFail != nil {
					onFail()
					return nil, false, context.Canceled
				}
				return nil, false, errors.New("insert failed")
			}
			return int64(100 + inserts), true, nil
		}
		return nil, false, nil
	}
	return store
}

func TestAddPersonTransfer(t *testing.T) {
	store := pairStore(0, nil)
	svc := NewService(store)

	pair, err := svc.AddPersonTransfer(context.Background(), 1, 2, 20, core.NewDate(2024, 3, 5))
	if err != nil {
		t.Fatalf("AddPersonTransfer failed: %v", err)
	}
	if pair.OutgoingID != 101 || pair.IncomingID != 102 {
		t.Errorf("unexpected ids %+v", pair)
	}

	var inserts []call
	for _, c := range store.calls {
		if strings.Contains(c.query, "INSERT INTO transfer") {
			inserts = append(inserts, c)
		}
	}
	if len(inserts) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(inserts))
	}
	out, in := inserts[0].args, inserts[1].args
	if out[0] != 1 || out[2] != "Transfer to Boris" || out[3] != -20.0 {
		t.Errorf("unexpected outgoing row %v", out)
	}
	if in[0] != 2 || in[2] != "Transfer from Anna" || in[3] != 20.0 {
		t.Errorf("unexpected incoming row %v", in)
	}
}

func TestAddPersonTransferCompensates(t *testing.T) {
	store := pairStore(2, nil)
	svc := NewService(store)

	_, err := svc.AddPersonTransfer(context.Background(), 1, 2, 20, core.NewDate(2024, 3, 5))
	if err == nil {
		t.Fatal("expected the second insert failure")
	}

	last := store.calls[len(store.calls)-1]
	if !strings.Contains(last.query, "DELETE FROM transfer") || last.args[0] != 101 {
		t.Errorf("expected deletion of the outgoing row, got %q %v", last.query, last.args)
	}
}

func TestAddPersonTransferCompensatesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := pairStore(2, cancel)
	svc := NewService(store)

	_, err := svc.AddPersonTransfer(ctx, 1, 2, 20, core.NewDate(2024, 3, 5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancellation to be reported, got %v", err)
	}
	if strings.Contains(err.Error(), "compensate") {
		t.Fatalf("compensation should succeed on a cancelled context, got %v", err)
	}

	last := store.calls[len(store.calls)-1]
	if !strings.Contains(last.query, "DELETE FROM transfer") || last.args[0] != 101 {
		t.Errorf("expected deletion of the outgoing row, got %q %v", last.query, last.args)
	}
}

func TestAddPersonTransferValidation(t *testing.T) {
	svc := NewService(pairStore(0, nil))
	ctx := context.Background()
	date := core.NewDate(2024, 3, 5)

	if _, err := svc.AddPersonTransfer(ctx, 1, 1, 5, date); !errors.Is(err, ErrSamePerson) {
		t.Errorf("expected ErrSamePerson, got %v", err)
	}
	if _, err := svc.AddPersonTransfer(ctx, 1, 2, 0, date); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.AddPersonTransfer(ctx, 1, 3, 5, date); !errors.Is(err, ErrPersonNotFound) {
		t.Errorf("expected ErrPersonNotFound, got %v", err)
	}
}

func TestCreateTablesDelegates(t *testing.T) {
	store := &fakeStore{state: storage.StateIncorrect}
	svc := NewService(store)

	if err := svc.CreateTables(context.Background()); err != nil {
		t.Fatalf("CreateTables failed: %v", err)
	}
	if !store.created || svc.State() != storage.StateCorrect {
		t.Error("CreateTables should delegate to the store")
	}
}

func TestDecode(t *testing.T) {
	people := DecodePeople(&storage.Table{
		Columns: []string{"person_id", "person_name", "total"},
		Rows:    [][]any{{int64(1), "Anna", 9.75}, {int64(2), "Boris", 0.0}},
	})
	if len(people) != 2 || people[0] != (core.Person{ID: 1, Name: "Anna", Total: 9.75}) {
		t.Errorf("unexpected people %+v", people)
	}

	categories := DecodeCategories(&storage.Table{
		Columns: []string{"category_id", "category_name"},
		Rows:    [][]any{{int64(1), core.CategoryInterPerson}, {int64(2), core.CategoryOneOff}},
	})
	if c, ok := FindCategory(categories, core.CategoryOneOff); !ok || c.ID != 2 {
		t.Errorf("expected one-off category id 2, got %+v", c)
	}
	if c, ok := FindCategory(categories, strings.ToUpper(core.CategoryOneOff)); !ok || c.ID != 2 {
		t.Errorf("lookup should ignore case, got %+v", c)
	}
	if _, ok := FindCategory(categories, "Rent"); ok {
		t.Error("unknown category should not be found")
	}

	totals := DecodeCategoryTotals(&storage.Table{
		Columns: []string{"category_name", "total"},
		Rows:    [][]any{{"Food", -12.5}},
	})
	if len(totals) != 1 || totals[0] != (core.CategoryAmount{Name: "Food", Amount: -12.5}) {
		t.Errorf("unexpected totals %+v", totals)
	}
}
