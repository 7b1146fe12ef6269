package orders

import (
	"context"
	"fmt"

	"parkservices/internal/domain"
)

// ServiceForm is a category-specific request that composes into a work order.
type ServiceForm interface {
	Category() string
	WorkOrder() WorkOrderInput
}

type RenovationForm struct {
	ProjectName string `json:"projectName" binding:"required"`
	Content     string `json:"content" binding:"required"`
	Duration    string `json:"duration" binding:"required"`
}

func (RenovationForm) Category() string { return domain.CategoryRenovation }

func (f RenovationForm) WorkOrder() WorkOrderInput {
	return WorkOrderInput{
		Title:       f.ProjectName,
		Description: fmt.Sprintf("改造内容：%s\n工期要求：%s", f.Content, f.Duration),
	}
}

type DiningForm struct {
	MealType        string `json:"mealType" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	PeopleCount     string `json:"peopleCount" binding:"required"`
	SpecialRequests string `json:"specialRequests"`
}

func (DiningForm) Category() string { return domain.CategoryDining }

func (f DiningForm) WorkOrder() WorkOrderInput {
	return WorkOrderInput{
		Title: f.MealType + "预订",
		Description: fmt.Sprintf("用餐时间：%s %s\n人数：%s人\n%s",
			f.Date, f.Time, f.PeopleCount, labelled("特殊要求：", f.SpecialRequests)),
	}
}

type MeetingRoomForm struct {
	Room        string `json:"room" binding:"required"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
	PeopleCount string `json:"peopleCount" binding:"required"`
	Purpose     string `json:"purpose" binding:"required"`
}

func (MeetingRoomForm) Category() string { return domain.CategoryMeetingRoom }

func (f MeetingRoomForm) WorkOrder() WorkOrderInput {
	return WorkOrderInput{
		Title: f.Room + "预定",
		Description: fmt.Sprintf("会议时间：%s %s-%s\n人数：%s人\n会议主题：%s",
			f.Date, f.StartTime, f.EndTime, f.PeopleCount, f.Purpose),
		Location: f.Room,
	}
}

type RecreationForm struct {
	Facility    string `json:"facility" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	PeopleCount string `json:"peopleCount" binding:"required"`
}

func (RecreationForm) Category() string { return domain.CategoryRecreation }

func (f RecreationForm) WorkOrder() WorkOrderInput {
	return WorkOrderInput{
		Title:       f.Facility + "预约",
		Description: fmt.Sprintf("使用时间：%s %s\n人数：%s人", f.Date, f.Time, f.PeopleCount),
		Location:    f.Facility,
	}
}

type AccommodationForm struct {
	RoomType   string `json:"roomType" binding:"required"`
	CheckIn    string `json:"checkIn" binding:"required"`
	CheckOut   string `json:"checkOut" binding:"required"`
	GuestCount string `json:"guestCount" binding:"required"`
	Remarks    string `json:"remarks"`
}

func (AccommodationForm) Category() string { return domain.CategoryAccommodation }

func (f AccommodationForm) WorkOrder() WorkOrderInput {
	return WorkOrderInput{
		Title: f.RoomType + "预订",
		Description: fmt.Sprintf("入住时间：%s\n退房时间：%s\n入住人数：%s人\n%s",
			f.CheckIn, f.CheckOut, f.GuestCount, labelled("备注：", f.Remarks)),
	}
}

type VisitorForm struct {
	VisitorName   string `json:"visitorName" binding:"required"`
	VisitorPhone  string `json:"visitorPhone" binding:"required"`
	VisitorCount  string `json:"visitorCount" binding:"required"`
	VisitDate     string `json:"visitDate" binding:"required"`
	VisitTime     string `json:"visitTime" binding:"required"`
	VisitLocation string `json:"visitLocation" binding:"required"`
	VisitPurpose  string `json:"visitPurpose" binding:"required"`
}

func (VisitorForm) Category() string { return domain.CategoryVisitor }

func (f VisitorForm) WorkOrder() WorkOrderInput {
	return WorkOrderInput{
		Title: "访客预约 - " + f.VisitorName,
		Description: fmt.Sprintf("访客：%s\n联系电话：%s\n人数：%s人\n来访时间：%s %s\n来访事由：%s",
			f.VisitorName, f.VisitorPhone, f.VisitorCount, f.VisitDate, f.VisitTime, f.VisitPurpose),
		Location: f.VisitLocation,
	}
}

// SubmitForm composes the form into a pending work order of its category.
func (s *Service) SubmitForm(ctx context.Context, form ServiceForm, submitter string) (*domain.WorkOrder, error) {
	in := form.WorkOrder()
	in.Submitter = submitter
	return s.SubmitWorkOrder(ctx, in, form.Category())
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + value
}
