package tickets_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketfairy/internal/models"
	"ticketfairy/internal/tickets"
)

type noopLogger struct{}

func (noopLogger) Info(category, message string)  {}
func (noopLogger) Warn(category, message string)  {}
func (noopLogger) Error(category, message string) {}

// memStore emulates the persistence gateway. The mutex held across the
// whole transaction callback plays the role of the database row lock.
type memStore struct {
	mu        sync.Mutex
	events    map[int64]models.Event
	sold      map[int64]int
	nextID    int64
	committed []models.Ticket

	insertErr error
	txCalls   int
}

func newMemStore(events ...models.Event) *memStore {
	s := &memStore{
		events: make(map[int64]models.Event),
		sold:   make(map[int64]int),
	}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx tickets.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCalls++

	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		// Rollback: staged inserts are discarded.
		return err
	}
	for _, t := range tx.staged {
		s.sold[t.EventID] += t.Quantity
		s.committed = append(s.committed, t)
	}
	return nil
}

type memTx struct {
	store  *memStore
	staged []models.Ticket
}

func (t *memTx) LockEventForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	event, ok := t.store.events[id]
	if !ok {
		return nil, tickets.ErrEventNotFound
	}
	return &event, nil
}

func (t *memTx) SumSoldQuantity(ctx context.Context, eventID int64) (int, error) {
	return t.store.sold[eventID], nil
}

func (t *memTx) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.store.nextID++
	ticket.ID = t.store.nextID
	t.staged = append(t.staged, *ticket)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []models.Ticket
	err       error
}

func (p *recordingPublisher) PublishTicketPurchased(ticket models.Ticket, eventName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, ticket)
	return nil
}

func testEvent() models.Event {
	return models.Event{
		ID:           1,
		Name:         "Comedy Night",
		TotalTickets: 10,
		Price:        decimal.NewFromFloat(25.00),
	}
}

func validRequest() models.PurchaseRequest {
	return models.PurchaseRequest{
		EventID:       1,
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@x.com",
		Quantity:      4,
	}
}

func TestPurchaseValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.PurchaseRequest)
	}{
		{"zero quantity", func(r *models.PurchaseRequest) { r.Quantity = 0 }},
		{"negative quantity", func(r *models.PurchaseRequest) { r.Quantity = -1 }},
		{"invalid email", func(r *models.PurchaseRequest) { r.CustomerEmail = "not-an-email" }},
		{"blank name", func(r *models.PurchaseRequest) { r.CustomerName = "   " }},
		{"missing email", func(r *models.PurchaseRequest) { r.CustomerEmail = "" }},
		{"zero event id", func(r *models.PurchaseRequest) { r.EventID = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore(testEvent())
			service := tickets.NewService(store, nil, noopLogger{})

			req := validRequest()
			tc.mutate(&req)

			_, err := service.Purchase(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tickets.KindInvalidInput, tickets.Classify(err))
			// Validation failures must never touch storage.
			assert.Zero(t, store.txCalls)
		})
	}
}

func TestPurchaseSuccess(t *testing.T) {
	store := newMemStore(testEvent())
	publisher := &recordingPublisher{}
	service := tickets.NewService(store, publisher, noopLogger{})

	confirmation, err := service.Purchase(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1), confirmation.TicketID)
	assert.Equal(t, "Comedy Night", confirmation.EventName)
	assert.Equal(t, 4, confirmation.Quantity)
	assert.True(t, confirmation.TotalAmount.Equal(decimal.NewFromFloat(100.00)),
		"expected total 100.00, got %s", confirmation.TotalAmount)

	require.Len(t, store.committed, 1)
	assert.Equal(t, 4, store.sold[1])
	require.Len(t, publisher.published, 1)
	assert.Equal(t, int64(1), publisher.published[0].ID)
}

func TestPurchaseInsufficientTickets(t *testing.T) {
	store := newMemStore(testEvent())
	service := tickets.NewService(store, nil, noopLogger{})

	_, err := service.Purchase(context.Background(), validRequest())
	require.NoError(t, err)

	// 6 remain; asking for 7 must fail and leave sold unchanged.
	req := validRequest()
	req.CustomerName = "Bob"
	req.CustomerEmail = "bob@x.com"
	req.Quantity = 7

	_, err = service.Purchase(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, tickets.KindInsufficientTickets, tickets.Classify(err))
	assert.Equal(t, "Only 6 tickets left", err.Error())
	assert.Equal(t, 4, store.sold[1])
	assert.Len(t, store.committed, 1)
}

func TestPurchaseEventNotFound(t *testing.T) {
	store := newMemStore(testEvent())
	service := tickets.NewService(store, nil, noopLogger{})

	req := validRequest()
	req.EventID = 999

	_, err := service.Purchase(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, tickets.KindEventNotFound, tickets.Classify(err))
	assert.Zero(t, store.sold[999])
}

func TestPurchaseStorageFailureRollsBack(t *testing.T) {
	store := newMemStore(testEvent())
	store.insertErr = errors.New("connection reset")
	service := tickets.NewService(store, nil, noopLogger{})

	_, err := service.Purchase(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, tickets.KindSystem, tickets.Classify(err))

	var sysErr *tickets.SystemError
	require.ErrorAs(t, err, &sysErr)

	// No sale record persists for a failed attempt.
	assert.Empty(t, store.committed)
	assert.Zero(t, store.sold[1])
}

func TestPurchasePublisherFailureDoesNotFailPurchase(t *testing.T) {
	store := newMemStore(testEvent())
	publisher := &recordingPublisher{err: errors.New("broker down")}
	service := tickets.NewService(store, publisher, noopLogger{})

	confirmation, err := service.Purchase(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), confirmation.TicketID)
	assert.Len(t, store.committed, 1)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	const (
		capacity = 5
		workers  = 20
	)

	event := testEvent()
	event.TotalTickets = capacity
	store := newMemStore(event)
	service := tickets.NewService(store, nil, noopLogger{})

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successes    int
		insufficient int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := validRequest()
			req.Quantity = 1

			_, err := service.Purchase(context.Background(), req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case tickets.Classify(err) == tickets.KindInsufficientTickets:
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, successes)
	assert.Equal(t, workers-capacity, insufficient)
	assert.Equal(t, capacity, store.sold[1], "sold must never exceed capacity")
	assert.Len(t, store.committed, capacity)
}
