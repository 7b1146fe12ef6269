package orders

import "parkservices/internal/domain"

type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionRate     Action = "rate"
)

type transition struct {
	from []domain.OrderStatus
	to   domain.OrderStatus
}

var transitions = map[Action]transition{
	ActionApprove:  {from: []domain.OrderStatus{domain.OrderPending}, to: domain.OrderApproved},
	ActionReject:   {from: []domain.OrderStatus{domain.OrderPending}, to: domain.OrderRejected},
	ActionStart:    {from: []domain.OrderStatus{domain.OrderApproved}, to: domain.OrderInProgress},
	ActionComplete: {from: []domain.OrderStatus{domain.OrderInProgress}, to: domain.OrderCompleted},
	ActionRate:     {from: []domain.OrderStatus{domain.OrderCompleted}, to: domain.OrderRated},
}

// Target is the status an action moves an order to.
func (a Action) Target() domain.OrderStatus {
	return transitions[a].to
}

// Allows reports whether the action is defined from the given status.
func (a Action) Allows(from domain.OrderStatus) bool {
	for _, s := range transitions[a].from {
		if s == from {
			return true
		}
	}
	return false
}
