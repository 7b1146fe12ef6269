package persistence

import (
	"parkservices/internal/domain"
	"parkservices/internal/pkg/utils"
)

const (
	repairKeepCompacted  = 20
	repairPhotoKeepIndex = 10
	repairKeepMinimal    = 10
	repairDescMinimal    = 100
	repairCommentMinimal = 50
	workDescCompacted    = 300
	workCommentCompacted = 150
	workTitleMinimal     = 100
	workDescMinimal      = 200
	workCommentMinimal   = 100
)

func newest[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// compactRepairOrders keeps the newest records and drops photos that are no longer needed:
// terminal-ish orders and everything past the first repairPhotoKeepIndex+1 records.
func compactRepairOrders(orders []domain.RepairOrder) []domain.RepairOrder {
	kept := newest(orders, repairKeepCompacted)
	out := make([]domain.RepairOrder, 0, len(kept))
	for i, o := range kept {
		switch {
		case o.Status == domain.OrderRated, o.Status == domain.OrderCompleted, o.Status == domain.OrderRejected:
			o.Photo = ""
		case i > repairPhotoKeepIndex:
			o.Photo = ""
		}
		out = append(out, o)
	}
	return out
}

func minimalRepairOrders(orders []domain.RepairOrder) []domain.RepairOrder {
	kept := newest(orders, repairKeepMinimal)
	out := make([]domain.RepairOrder, 0, len(kept))
	for _, o := range kept {
		out = append(out, domain.RepairOrder{
			ID:          o.ID,
			Type:        o.Type,
			Location:    o.Location,
			Description: utils.TruncateRunes(o.Description, repairDescMinimal),
			Status:      o.Status,
			Engineer:    o.Engineer,
			Timestamp:   o.Timestamp,
			Submitter:   o.Submitter,
			Rating:      o.Rating,
			Comment:     utils.TruncateRunes(o.Comment, repairCommentMinimal),
		})
	}
	return out
}

func compactWorkOrders(orders []domain.WorkOrder) []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0, len(orders))
	for _, o := range orders {
		o.Description = utils.TruncateRunes(o.Description, workDescCompacted)
		o.Comment = utils.TruncateRunes(o.Comment, workCommentCompacted)
		out = append(out, o)
	}
	return out
}

// minimalWorkOrders keeps every record but shortens text and drops completion photos.
func minimalWorkOrders(orders []domain.WorkOrder) []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, domain.WorkOrder{
			ID:           o.ID,
			Category:     o.Category,
			Title:        utils.TruncateRunes(o.Title, workTitleMinimal),
			Description:  utils.TruncateRunes(o.Description, workDescMinimal),
			Location:     o.Location,
			Status:       o.Status,
			Submitter:    o.Submitter,
			SubmitTime:   o.SubmitTime,
			Handler:      o.Handler,
			CompleteTime: o.CompleteTime,
			Rating:       o.Rating,
			Comment:      utils.TruncateRunes(o.Comment, workCommentMinimal),
		})
	}
	return out
}
