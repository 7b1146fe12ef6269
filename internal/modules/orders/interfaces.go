package orders

import (
	"context"

	"parkservices/internal/domain"
	"parkservices/internal/modules/persistence"
)

// Store mirrors both collections into durable storage (implemented by persistence.Manager).
type Store interface {
	LoadRepairOrders(ctx context.Context) []domain.RepairOrder
	LoadWorkOrders(ctx context.Context) []domain.WorkOrder
	SaveRepairOrders(ctx context.Context, orders []domain.RepairOrder) persistence.SaveOutcome
	SaveWorkOrders(ctx context.Context, orders []domain.WorkOrder) persistence.SaveOutcome
}

// Publisher pushes snapshots to connected views after every mutation.
type Publisher interface {
	Publish(event string, payload any)
}

// TransitionRecorder counts transition results (implemented by metrics.Metrics).
type TransitionRecorder interface {
	ObserveTransition(action, result string)
}

// SessionReader exposes the current user to the snapshot endpoint.
type SessionReader interface {
	Current(ctx context.Context) *domain.User
}
