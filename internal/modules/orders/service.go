package orders

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"parkservices/internal/domain"
	"parkservices/internal/modules/persistence"
)

// EventSnapshot is published with a Snapshot after every mutation.
const EventSnapshot = "orders_snapshot"

type RepairInput struct {
	Type        string
	Location    string
	Description string
	Photo       string
	Engineer    string
	ETA         string
	Submitter   string
}

type WorkOrderInput struct {
	Title       string
	Description string
	Location    string
	Submitter   string
}

// MirroredOrder holds both representations of one order id. Either side may be nil.
type MirroredOrder struct {
	WorkOrder   *domain.WorkOrder   `json:"work_order,omitempty"`
	RepairOrder *domain.RepairOrder `json:"repair_order,omitempty"`
}

// Snapshot is a read-only copy of both collections, newest first.
type Snapshot struct {
	RepairOrders []domain.RepairOrder `json:"repair_orders"`
	WorkOrders   []domain.WorkOrder   `json:"work_orders"`
}

// State is the in-memory replica owned by the coordinator.
type State struct {
	RepairOrders []domain.RepairOrder
	WorkOrders   []domain.WorkOrder
}

type Options struct {
	// Permissive applies every transition regardless of the current status.
	Permissive bool
	Now        func() time.Time
}

// Service is the order coordinator: the only component that mutates either collection.
type Service struct {
	mu     sync.Mutex
	state  State
	lastID int64

	store      Store
	publisher  Publisher
	recorder   TransitionRecorder
	permissive bool
	now        func() time.Time
}

// NewService rehydrates the state from store.
func NewService(ctx context.Context, store Store, publisher Publisher, recorder TransitionRecorder, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	s := &Service{
		store:      store,
		publisher:  publisher,
		recorder:   recorder,
		permissive: opts.Permissive,
		now:        now,
	}
	s.state = State{
		RepairOrders: store.LoadRepairOrders(ctx),
		WorkOrders:   store.LoadWorkOrders(ctx),
	}
	s.lastID = maxNumericID(s.state)

	log.Printf("orders_hydrated repair_orders=%d work_orders=%d permissive=%t",
		len(s.state.RepairOrders), len(s.state.WorkOrders), s.permissive)
	return s
}

// SubmitRepair creates a pending repair order and its mirrored work order.
func (s *Service) SubmitRepair(ctx context.Context, in RepairInput) MirroredOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := s.nextID(now)

	repair := domain.RepairOrder{
		ID:          id,
		Type:        in.Type,
		Location:    in.Location,
		Description: in.Description,
		Photo:       in.Photo,
		Status:      domain.OrderPending,
		Engineer:    in.Engineer,
		ETA:         in.ETA,
		Timestamp:   now,
		Submitter:   in.Submitter,
	}
	work := domain.WorkOrder{
		ID:          id,
		Category:    domain.CategoryRepair,
		Title:       fmt.Sprintf("%s - %s", in.Type, in.Location),
		Description: fmt.Sprintf("故障描述：%s\n报修照片：已上传", in.Description),
		Location:    in.Location,
		Status:      domain.OrderPending,
		Submitter:   submitterOrUnknown(in.Submitter),
		SubmitTime:  now,
	}

	s.state.RepairOrders = prepend(s.state.RepairOrders, repair)
	s.state.WorkOrders = prepend(s.state.WorkOrders, work)
	s.persistLocked(ctx)

	log.Printf("order_submitted id=%s category=%s submitter=%s", id, work.Category, work.Submitter)
	return MirroredOrder{WorkOrder: cloneWork(work), RepairOrder: cloneRepair(repair)}
}

// SubmitWorkOrder creates a standalone pending work order of a non-repair category.
func (s *Service) SubmitWorkOrder(ctx context.Context, in WorkOrderInput, category string) (*domain.WorkOrder, error) {
	if !domain.IsServiceCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	work := domain.WorkOrder{
		ID:          s.nextID(now),
		Category:    category,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Status:      domain.OrderPending,
		Submitter:   submitterOrUnknown(in.Submitter),
		SubmitTime:  now,
	}

	s.state.WorkOrders = prepend(s.state.WorkOrders, work)
	s.persistLocked(ctx)

	log.Printf("order_submitted id=%s category=%s submitter=%s", work.ID, work.Category, work.Submitter)
	return cloneWork(work), nil
}

func (s *Service) Approve(ctx context.Context, id string) (MirroredOrder, error) {
	return s.apply(ctx, id, ActionApprove, nil, nil)
}

func (s *Service) Reject(ctx context.Context, id string) (MirroredOrder, error) {
	return s.apply(ctx, id, ActionReject, nil, nil)
}

// Start moves an approved order to in-progress and records the handler on the work order.
func (s *Service) Start(ctx context.Context, id, handler string) (MirroredOrder, error) {
	handler = strings.TrimSpace(handler)
	if handler == "" {
		return MirroredOrder{}, ErrHandlerRequired
	}
	return s.apply(ctx, id, ActionStart, func(w *domain.WorkOrder) {
		w.Handler = handler
	}, nil)
}

// Complete records completion time and photos. Zero photos are accepted here.
func (s *Service) Complete(ctx context.Context, id string, photos []string) (MirroredOrder, error) {
	if len(photos) > domain.MaxCompletionPhotos {
		return MirroredOrder{}, fmt.Errorf("%w: %d > %d", ErrTooManyPhotos, len(photos), domain.MaxCompletionPhotos)
	}
	kept := make([]string, len(photos))
	copy(kept, photos)

	return s.apply(ctx, id, ActionComplete, func(w *domain.WorkOrder) {
		t := s.now()
		w.CompleteTime = &t
		w.CompletionPhotos = kept
	}, nil)
}

// Rate terminates the lifecycle. The comment may be empty.
func (s *Service) Rate(ctx context.Context, id string, rating int, comment string) (MirroredOrder, error) {
	if rating < 1 || rating > 5 {
		return MirroredOrder{}, ErrInvalidRating
	}
	return s.apply(ctx, id, ActionRate, func(w *domain.WorkOrder) {
		r := rating
		w.Rating = &r
		w.Comment = comment
	}, func(o *domain.RepairOrder) {
		r := rating
		o.Rating = &r
		o.Comment = comment
	})
}

// apply sets the action's target status on the work order and its mirrored repair order.
func (s *Service) apply(ctx context.Context, id string, action Action, onWork func(*domain.WorkOrder), onRepair func(*domain.RepairOrder)) (MirroredOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wi := s.workIndex(id)
	ri := s.repairIndex(id)
	if wi < 0 && ri < 0 {
		s.observe(action, "not_found")
		return MirroredOrder{}, ErrOrderNotFound
	}

	var current domain.OrderStatus
	if wi >= 0 {
		current = s.state.WorkOrders[wi].Status
	} else {
		current = s.state.RepairOrders[ri].Status
	}

	if !action.Allows(current) {
		if !s.permissive {
			s.observe(action, "rejected")
			return MirroredOrder{}, &TransitionError{OrderID: id, Action: action, From: current}
		}
		log.Printf("order_transition_forced id=%s action=%s from=%s", id, action, current)
	}

	target := action.Target()
	var out MirroredOrder
	if wi >= 0 {
		w := &s.state.WorkOrders[wi]
		w.Status = target
		if onWork != nil {
			onWork(w)
		}
		out.WorkOrder = cloneWork(*w)
	}
	if ri >= 0 {
		r := &s.state.RepairOrders[ri]
		r.Status = target
		if onRepair != nil {
			onRepair(r)
		}
		out.RepairOrder = cloneRepair(*r)
	}

	s.persistLocked(ctx)
	s.observe(action, "ok")

	log.Printf("order_transition id=%s action=%s from=%s to=%s", id, action, current, target)
	return out, nil
}

// Get returns both representations of an order.
func (s *Service) Get(id string) (MirroredOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out MirroredOrder
	if i := s.workIndex(id); i >= 0 {
		out.WorkOrder = cloneWork(s.state.WorkOrders[i])
	}
	if i := s.repairIndex(id); i >= 0 {
		out.RepairOrder = cloneRepair(s.state.RepairOrders[i])
	}
	if out.WorkOrder == nil && out.RepairOrder == nil {
		return MirroredOrder{}, ErrOrderNotFound
	}
	return out, nil
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

type WorkOrderFilter struct {
	Status    domain.OrderStatus
	Submitter string
	Category  string
}

// WorkOrders returns work orders matching every non-empty filter field, newest first.
func (s *Service) WorkOrders(f WorkOrderFilter) []domain.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.WorkOrder, 0)
	for _, o := range s.state.WorkOrders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Submitter != "" && o.Submitter != f.Submitter {
			continue
		}
		if f.Category != "" && o.Category != f.Category {
			continue
		}
		out = append(out, o.Clone())
	}
	return out
}

// RepairOrders returns the repair orders of one submitter, or all when submitter is empty.
func (s *Service) RepairOrders(submitter string) []domain.RepairOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.RepairOrder, 0)
	for _, o := range s.state.RepairOrders {
		if submitter != "" && o.Submitter != submitter {
			continue
		}
		out = append(out, o.Clone())
	}
	return out
}

// Stats counts work orders per status, plus "all".
func (s *Service) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]int{
		"all":                          len(s.state.WorkOrders),
		string(domain.OrderPending):    0,
		string(domain.OrderApproved):   0,
		string(domain.OrderRejected):   0,
		string(domain.OrderInProgress): 0,
		string(domain.OrderCompleted):  0,
		string(domain.OrderRated):      0,
	}
	for _, o := range s.state.WorkOrders {
		stats[string(o.Status)]++
	}
	return stats
}

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		RepairOrders: make([]domain.RepairOrder, 0, len(s.state.RepairOrders)),
		WorkOrders:   make([]domain.WorkOrder, 0, len(s.state.WorkOrders)),
	}
	for _, o := range s.state.RepairOrders {
		snap.RepairOrders = append(snap.RepairOrders, o.Clone())
	}
	for _, o := range s.state.WorkOrders {
		snap.WorkOrders = append(snap.WorkOrders, o.Clone())
	}
	return snap
}

// persistLocked writes both collections and notifies views. Failures degrade inside the store.
func (s *Service) persistLocked(ctx context.Context) {
	// a cancelled request must not turn into a dropped key
	ctx = context.WithoutCancel(ctx)

	repairOutcome := s.store.SaveRepairOrders(ctx, s.state.RepairOrders)
	workOutcome := s.store.SaveWorkOrders(ctx, s.state.WorkOrders)
	if repairOutcome != persistence.SaveFull || workOutcome != persistence.SaveFull {
		log.Printf("orders_persist_degraded repair_orders=%s work_orders=%s", repairOutcome, workOutcome)
	}

	if s.publisher != nil {
		s.publisher.Publish(EventSnapshot, s.snapshotLocked())
	}
}

func (s *Service) observe(action Action, result string) {
	if s.recorder != nil {
		s.recorder.ObserveTransition(string(action), result)
	}
}

// nextID derives a millisecond timestamp id, bumped to stay unique.
func (s *Service) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *Service) workIndex(id string) int {
	for i := range s.state.WorkOrders {
		if s.state.WorkOrders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) repairIndex(id string) int {
	for i := range s.state.RepairOrders {
		if s.state.RepairOrders[i].ID == id {
			return i
		}
	}
	return -1
}

func maxNumericID(st State) int64 {
	var highest int64
	check := func(id string) {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	for _, o := range st.RepairOrders {
		check(o.ID)
	}
	for _, o := range st.WorkOrders {
		check(o.ID)
	}
	return highest
}

func prepend[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

func submitterOrUnknown(name string) string {
	if strings.TrimSpace(name) == "" {
		return domain.UnknownSubmitter
	}
	return name
}

func cloneWork(o domain.WorkOrder) *domain.WorkOrder {
	c := o.Clone()
	return &c
}

func cloneRepair(o domain.RepairOrder) *domain.RepairOrder {
	c := o.Clone()
	return &c
}
