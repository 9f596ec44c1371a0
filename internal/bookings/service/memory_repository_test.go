package service

import (
	"context"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/repository"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
	"sort"
	"sync"
	"time"
)

type txKey struct{}

// memoryRepository is an in-memory BookingRepository whose transactions run
// one at a time and roll back on error, like a serializable store.
type memoryRepository struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	rooms    map[string]*model.Room
	bookings map[string]*model.Booking
	nextID   int

	// staleTxReads hides existing bookings from overlap queries made inside
	// a transaction, forcing the slot constraint to catch the duplicate.
	staleTxReads bool
	createErr    error
	txCalls      int
}

var _ repository.BookingRepository = (*memoryRepository)(nil)

func newMemoryRepository(rooms ...*model.Room) *memoryRepository {
	r := &memoryRepository{
		rooms:    make(map[string]*model.Room),
		bookings: make(map[string]*model.Booking),
	}
	for _, room := range rooms {
		r.rooms[room.ID] = room
	}
	return r
}

func (r *memoryRepository) seed(b *model.Booking) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = r.newID()
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return b
}

func (r *memoryRepository) get(id string) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (r *memoryRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *memoryRepository) newID() string {
	r.nextID++
	return fmt.Sprintf("%024x", r.nextID)
}

func (r *memoryRepository) Create(ctx context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	for _, b := range r.bookings {
		if b.Status == config.Confirmed && booking.Status == config.Confirmed &&
			b.RoomID == booking.RoomID && b.StartTime.Equal(booking.StartTime) {
			return fmt.Errorf("%w: duplicate slot", bookingserrors.ErrConstraintViolation)
		}
	}

	booking.ID = r.newID()
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b := r.get(id)
	if b == nil {
		return nil, bookingserrors.ErrNotFound
	}
	return b, nil
}

func (r *memoryRepository) FindOverlappingConfirmed(ctx context.Context, roomID string, tr model.TimeRange) ([]*model.Booking, error) {
	if r.staleTxReads && ctx.Value(txKey{}) != nil {
		return []*model.Booking{}, nil
	}
	return r.filter(func(b *model.Booking) bool {
		return b.RoomID == roomID && b.Status == config.Confirmed && tr.Overlaps(b.Range())
	}, false), nil
}

func (r *memoryRepository) FindConfirmedStartingIn(ctx context.Context, roomID string, tr model.TimeRange) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return (roomID == "" || b.RoomID == roomID) && b.Status == config.Confirmed && tr.Contains(b.StartTime)
	}, false), nil
}

func (r *memoryRepository) FindByUser(ctx context.Context, userID string, filter config.BookingFilter, now time.Time, limit int, offset int64) ([]*model.Booking, error) {
	all := r.filter(userPredicate(userID, filter, now), true)
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryRepository) CountByUser(ctx context.Context, userID string, filter config.BookingFilter, now time.Time) (int64, error) {
	return int64(len(r.filter(userPredicate(userID, filter, now), false))), nil
}

func userPredicate(userID string, filter config.BookingFilter, now time.Time) func(b *model.Booking) bool {
	return func(b *model.Booking) bool {
		if b.UserID != userID {
			return false
		}
		switch filter {
		case config.FilterUpcoming:
			return b.Status == config.Confirmed && !b.StartTime.Before(now)
		case config.FilterPast:
			return b.EndTime.Before(now)
		}
		return true
	}
}

func (r *memoryRepository) CancelIfConfirmed(ctx context.Context, id string, cancelledBy string, at time.Time) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != config.Confirmed {
		return nil, bookingserrors.ErrAlreadyCancelled
	}
	b.Status = config.Cancelled
	b.CancelledAt = &at
	b.CancelledBy = cancelledBy
	b.UpdatedAt = at
	cp := *b
	return &cp, nil
}

func (r *memoryRepository) LockRoomForCommit(ctx context.Context, roomID string) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, bookingserrors.ErrRoomNotFound
	}
	room.BookingSeq++
	cp := *room
	return &cp, nil
}

func (r *memoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	r.txCalls++
	bookings := make(map[string]model.Booking, len(r.bookings))
	for id, b := range r.bookings {
		bookings[id] = *b
	}
	seqs := make(map[string]int64, len(r.rooms))
	for id, room := range r.rooms {
		seqs[id] = room.BookingSeq
	}
	r.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		r.mu.Lock()
		r.bookings = make(map[string]*model.Booking, len(bookings))
		for id, b := range bookings {
			cp := b
			r.bookings[id] = &cp
		}
		for id, seq := range seqs {
			r.rooms[id].BookingSeq = seq
		}
		r.mu.Unlock()
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *memoryRepository) filter(keep func(b *model.Booking) bool, newestFirst bool) []*model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Booking, 0)
	for _, b := range r.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].StartTime.After(out[j].StartTime)
		}
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
