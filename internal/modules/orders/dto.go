package orders

import "parkservices/internal/domain"

type SubmitRepairRequest struct {
	Type        string `json:"type" binding:"required"`
	Location    string `json:"location" binding:"required"`
	Description string `json:"description" binding:"required"`
	Photo       string `json:"photo" binding:"required"`
	Engineer    string `json:"engineer"`
	ETA         string `json:"eta"`
}

type SubmitWorkOrderRequest struct {
	Category    string `json:"category" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Location    string `json:"location"`
}

// StartRequest names the staff member taking the order. Empty means the caller.
type StartRequest struct {
	Handler string `json:"handler"`
}

// CompleteRequest requires at least one photo even though the coordinator accepts none.
type CompleteRequest struct {
	CompletionPhotos []string `json:"completionPhotos" binding:"required,min=1,max=6,dive,required"`
}

type RateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type SnapshotResponse struct {
	CurrentUser  *domain.User         `json:"current_user"`
	RepairOrders []domain.RepairOrder `json:"repair_orders"`
	WorkOrders   []domain.WorkOrder   `json:"work_orders"`
}
