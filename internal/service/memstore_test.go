package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory TxManager. Each unit of work holds an exclusive
// lock and works on a private copy of the data, which replaces the shared
// copy only on Commit.
type memStore struct {
	txLock sync.Mutex
	mu     sync.Mutex
	state  *memState

	commits   int
	rollbacks int

	// failItemStatus, when set, is returned by Items().UpdateStatus.
	failItemStatus error
}

type memState struct {
	nextID   int32
	users    map[int32]domain.User
	wallets  map[int32]domain.Wallet
	txs      []domain.Transaction
	items    map[int32]domain.Item
	bookings map[int32]domain.Booking
	disputes map[int32]domain.Dispute
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		nextID:   100,
		users:    map[int32]domain.User{},
		wallets:  map[int32]domain.Wallet{},
		items:    map[int32]domain.Item{},
		bookings: map[int32]domain.Booking{},
		disputes: map[int32]domain.Dispute{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:   s.nextID,
		users:    make(map[int32]domain.User, len(s.users)),
		wallets:  make(map[int32]domain.Wallet, len(s.wallets)),
		txs:      append([]domain.Transaction(nil), s.txs...),
		items:    make(map[int32]domain.Item, len(s.items)),
		bookings: make(map[int32]domain.Booking, len(s.bookings)),
		disputes: make(map[int32]domain.Dispute, len(s.disputes)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	return c
}

func (s *memState) id() int32 {
	s.nextID++
	return s.nextID
}

func (m *memStore) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	m.txLock.Lock()
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memUoW{store: m, st: m.state.clone()}, nil
}

// seedUser creates a user with a wallet holding balance, bypassing the ledger.
func (m *memStore) seedUser(name string, role domain.UserRole, balance string) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.state.id()
	m.state.users[id] = domain.User{ID: id, FullName: name, Email: fmt.Sprintf("%s@example.com", name), Role: role}
	walletID := m.state.id()
	m.state.wallets[walletID] = domain.Wallet{ID: walletID, UserID: id, Balance: decimal.RequireFromString(balance)}
	return id
}

func (m *memStore) seedItem(lenderID int32, daily string, minDays, maxDays int32) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.state.id()
	m.state.items[id] = domain.Item{
		ID: id, LenderID: lenderID, Title: fmt.Sprintf("Item %d", id), Location: "Lahore",
		DailyDeposit: decimal.RequireFromString(daily), MinDays: minDays, MaxDays: maxDays,
		IsActive: true, Status: domain.ItemStatusAvailable,
	}
	return id
}

func (m *memStore) balance(userID int32) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.state.wallets {
		if w.UserID == userID {
			return w.Balance
		}
	}
	panic(fmt.Sprintf("no wallet for user %d", userID))
}

func (m *memStore) item(id int32) domain.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.items[id]
}

func (m *memStore) booking(id int32) domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.bookings[id]
}

func (m *memStore) transactions(userID int32) []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range m.state.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

func (m *memStore) allWallets() []domain.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Wallet, 0, len(m.state.wallets))
	for _, w := range m.state.wallets {
		out = append(out, w)
	}
	return out
}

func (m *memStore) setItemStatus(id int32, status domain.ItemStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.state.items[id]
	it.Status = status
	m.state.items[id] = it
}

type memUoW struct {
	store *memStore
	st    *memState
	done  bool
}

func (u *memUoW) Users() repository.UserRepository       { return memUsers{u} }
func (u *memUoW) Wallets() repository.WalletRepository   { return memWallets{u} }
func (u *memUoW) Items() repository.ItemRepository       { return memItems{u} }
func (u *memUoW) Bookings() repository.BookingRepository { return memBookings{u} }
func (u *memUoW) Disputes() repository.DisputeRepository { return memDisputes{u} }

func (u *memUoW) Commit() error {
	if u.done {
		return errors.New("unit of work already finished")
	}
	u.done = true
	u.store.mu.Lock()
	u.store.state = u.st
	u.store.commits++
	u.store.mu.Unlock()
	u.store.txLock.Unlock()
	return nil
}

func (u *memUoW) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.mu.Lock()
	u.store.rollbacks++
	u.store.mu.Unlock()
	u.store.txLock.Unlock()
	return nil
}

type memUsers struct{ u *memUoW }

func (r memUsers) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range r.u.st.users {
		if existing.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	user.ID = r.u.st.id()
	r.u.st.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	user, ok := r.u.st.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &user, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.u.st.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
}

type memWallets struct{ u *memUoW }

func (r memWallets) Create(ctx context.Context, w *domain.Wallet) error {
	w.ID = r.u.st.id()
	r.u.st.wallets[w.ID] = *w
	return nil
}

func (r memWallets) GetByUserID(ctx context.Context, userID int32) (*domain.Wallet, error) {
	for _, w := range r.u.st.wallets {
		if w.UserID == userID {
			return &w, nil
		}
	}
	return nil, fmt.Errorf("wallet for user %d: %w", userID, domain.ErrNotFound)
}

func (r memWallets) GetByUserIDForUpdate(ctx context.Context, userID int32) (*domain.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r memWallets) UpdateBalance(ctx context.Context, walletID int32, balance decimal.Decimal) error {
	w, ok := r.u.st.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet %d: %w", walletID, domain.ErrNotFound)
	}
	if balance.IsNegative() {
		return fmt.Errorf("%w: check constraint", domain.ErrInsufficientFunds)
	}
	w.Balance = balance
	r.u.st.wallets[walletID] = w
	return nil
}

func (r memWallets) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	tx.ID = r.u.st.id()
	tx.CreatedAt = time.Now().UTC()
	r.u.st.txs = append(r.u.st.txs, *tx)
	return nil
}

func (r memWallets) ListTransactions(ctx context.Context, walletID int32, limit int32) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	for i := len(r.u.st.txs) - 1; i >= 0; i-- {
		if r.u.st.txs[i].WalletID == walletID {
			out = append(out, r.u.st.txs[i])
		}
	}
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type memItems struct{ u *memUoW }

func (r memItems) Create(ctx context.Context, item *domain.Item) error {
	item.ID = r.u.st.id()
	r.u.st.items[item.ID] = *item
	return nil
}

func (r memItems) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	item, ok := r.u.st.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return &item, nil
}

func (r memItems) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Item, error) {
	return r.GetByID(ctx, id)
}

func (r memItems) UpdateStatus(ctx context.Context, id int32, status domain.ItemStatus) error {
	if r.u.store.failItemStatus != nil {
		return r.u.store.failItemStatus
	}
	item, ok := r.u.st.items[id]
	if !ok {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	item.Status = status
	r.u.st.items[id] = item
	return nil
}

type memBookings struct{ u *memUoW }

func (r memBookings) Create(ctx context.Context, b *domain.Booking) error {
	b.ID = r.u.st.id()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	r.u.st.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	b, ok := r.u.st.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	return &b, nil
}

func (r memBookings) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) UpdateStatus(ctx context.Context, id int32, from, to domain.BookingStatus, reason string) error {
	b, ok := r.u.st.bookings[id]
	if !ok || b.Status != from {
		return fmt.Errorf("booking %d: %w", id, domain.ErrConflict)
	}
	b.Status = to
	if reason != "" {
		b.Reason = reason
	}
	r.u.st.bookings[id] = b
	return nil
}

func (r memBookings) sorted(keep func(domain.Booking) bool) []domain.Booking {
	out := []domain.Booking{}
	for _, b := range r.u.st.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memBookings) ListByParty(ctx context.Context, userID int32) ([]domain.Booking, error) {
	return r.sorted(func(b domain.Booking) bool { return b.IsParty(userID) }), nil
}

func (r memBookings) ListByLender(ctx context.Context, lenderID int32, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.sorted(func(b domain.Booking) bool { return b.LenderID == lenderID && b.Status == status }), nil
}

func (r memBookings) ListActive(ctx context.Context, endingOnOrAfter time.Time) ([]domain.Booking, error) {
	return r.sorted(func(b domain.Booking) bool {
		return b.Status == domain.BookingStatusAccepted && !b.EndDate.Before(endingOnOrAfter)
	}), nil
}

type memDisputes struct{ u *memUoW }

func (r memDisputes) Create(ctx context.Context, d *domain.Dispute) error {
	for _, existing := range r.u.st.disputes {
		if existing.BookingID == d.BookingID {
			return fmt.Errorf("booking %d: %w", d.BookingID, domain.ErrDuplicateDispute)
		}
	}
	d.ID = r.u.st.id()
	d.CreatedAt = time.Now().UTC()
	r.u.st.disputes[d.ID] = *d
	return nil
}

func (r memDisputes) GetByID(ctx context.Context, id int32) (*domain.Dispute, error) {
	d, ok := r.u.st.disputes[id]
	if !ok {
		return nil, fmt.Errorf("dispute %d: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (r memDisputes) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Dispute, error) {
	return r.GetByID(ctx, id)
}

func (r memDisputes) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Dispute, error) {
	for _, d := range r.u.st.disputes {
		if d.BookingID == bookingID {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("dispute for booking %d: %w", bookingID, domain.ErrNotFound)
}

func (r memDisputes) HasOpenForBooking(ctx context.Context, bookingID int32) (bool, error) {
	for _, d := range r.u.st.disputes {
		if d.BookingID == bookingID && d.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r memDisputes) Update(ctx context.Context, d *domain.Dispute) error {
	if existing, ok := r.u.st.disputes[d.ID]; !ok || !existing.IsOpen() {
		return fmt.Errorf("dispute %d is no longer open: %w", d.ID, domain.ErrConflict)
	}
	r.u.st.disputes[d.ID] = *d
	return nil
}

func (r memDisputes) Delete(ctx context.Context, id int32) error {
	if existing, ok := r.u.st.disputes[id]; !ok || !existing.IsOpen() {
		return fmt.Errorf("dispute %d is no longer open: %w", id, domain.ErrConflict)
	}
	delete(r.u.st.disputes, id)
	return nil
}

func (r memDisputes) ListByParty(ctx context.Context, userID int32) ([]domain.Dispute, error) {
	out := []domain.Dispute{}
	for _, d := range r.u.st.disputes {
		if b, ok := r.u.st.bookings[d.BookingID]; ok && b.IsParty(userID) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
