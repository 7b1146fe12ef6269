package domain

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderApproved   OrderStatus = "approved"
	OrderRejected   OrderStatus = "rejected"
	OrderInProgress OrderStatus = "in-progress"
	OrderCompleted  OrderStatus = "completed"
	OrderRated      OrderStatus = "rated"
)

// Terminal reports whether no further transition is defined.
func (s OrderStatus) Terminal() bool {
	return s == OrderRejected || s == OrderRated
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderRejected, OrderInProgress, OrderCompleted, OrderRated:
		return true
	}
	return false
}

// Service categories. Every repair request is mirrored as a work order of CategoryRepair.
const (
	CategoryRepair        = "报修申请"
	CategoryRenovation    = "空间改造"
	CategoryDining        = "智慧餐饮"
	CategoryMeetingRoom   = "会议预定"
	CategoryRecreation    = "智慧休闲"
	CategoryAccommodation = "智慧住宿"
	CategoryVisitor       = "访客预约"
)

// ServiceCategories lists the categories a standalone work order may use.
var ServiceCategories = []string{
	CategoryRenovation,
	CategoryDining,
	CategoryMeetingRoom,
	CategoryRecreation,
	CategoryAccommodation,
	CategoryVisitor,
}

func IsServiceCategory(c string) bool {
	for _, v := range ServiceCategories {
		if v == c {
			return true
		}
	}
	return false
}

// UnknownSubmitter is recorded when a work order is created without a session.
const UnknownSubmitter = "未知"

const MaxCompletionPhotos = 6

type RepairOrder struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Photo       string      `json:"photo"`
	Status      OrderStatus `json:"status"`
	Engineer    string      `json:"engineer,omitempty"`
	ETA         string      `json:"eta,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Submitter   string      `json:"submitter,omitempty"`
	Rating      *int        `json:"rating,omitempty"`
	Comment     string      `json:"comment,omitempty"`
}

type WorkOrder struct {
	ID               string      `json:"id"`
	Category         string      `json:"category"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Location         string      `json:"location,omitempty"`
	Status           OrderStatus `json:"status"`
	Submitter        string      `json:"submitter"`
	SubmitTime       time.Time   `json:"submitTime"`
	Handler          string      `json:"handler,omitempty"`
	CompleteTime     *time.Time  `json:"completeTime,omitempty"`
	CompletionPhotos []string    `json:"completionPhotos"`
	Rating           *int        `json:"rating,omitempty"`
	Comment          string      `json:"comment,omitempty"`
}

func (o RepairOrder) Clone() RepairOrder {
	if o.Rating != nil {
		v := *o.Rating
		o.Rating = &v
	}
	return o
}

func (o WorkOrder) Clone() WorkOrder {
	if o.Rating != nil {
		v := *o.Rating
		o.Rating = &v
	}
	if o.CompleteTime != nil {
		t := *o.CompleteTime
		o.CompleteTime = &t
	}
	if o.CompletionPhotos != nil {
		photos := make([]string, len(o.CompletionPhotos))
		copy(photos, o.CompletionPhotos)
		o.CompletionPhotos = photos
	}
	return o
}
