package orders

import (
	"errors"
	"io"
	"net/http"

	"parkservices/internal/domain"
	"parkservices/internal/middleware"
	"parkservices/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc     *Service
	session SessionReader
}

func NewHandler(svc *Service, session SessionReader) *Handler {
	return &Handler{svc: svc, session: session}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	orders := protected.Group("/orders")
	{
		orders.GET("/snapshot", h.GetSnapshot)
		orders.GET("/work", h.ListWorkOrders)
		orders.GET("/work/stats", h.GetStats)
		orders.GET("/repairs", h.ListRepairOrders)
		orders.GET("/:id", h.GetOrder)

		orders.POST("/repairs", h.SubmitRepair)
		orders.POST("/work", h.SubmitWorkOrder)

		orders.POST("/:id/approve", middleware.AdminOnly(), h.Approve)
		orders.POST("/:id/reject", middleware.AdminOnly(), h.Reject)
		orders.POST("/:id/start", middleware.ServiceStaffOnly(), h.Start)
		orders.POST("/:id/complete", middleware.ServiceStaffOnly(), h.Complete)
		orders.POST("/:id/rate", h.Rate)
	}

	services := protected.Group("/services")
	{
		services.POST("/renovation", submitForm[RenovationForm](h))
		services.POST("/dining", submitForm[DiningForm](h))
		services.POST("/meeting-room", submitForm[MeetingRoomForm](h))
		services.POST("/recreation", submitForm[RecreationForm](h))
		services.POST("/accommodation", submitForm[AccommodationForm](h))
		services.POST("/visitor", submitForm[VisitorForm](h))
	}
}

// GetSnapshot returns both order collections and the current user.
// @Summary		Orders snapshot
// @Tags		Orders
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/orders/snapshot [GET]
func (h *Handler) GetSnapshot(c *gin.Context) {
	snap := h.svc.Snapshot()

	var current *domain.User
	if h.session != nil {
		current = h.session.Current(c.Request.Context())
	}

	response.Success(c, http.StatusOK, SnapshotResponse{
		CurrentUser:  current,
		RepairOrders: snap.RepairOrders,
		WorkOrders:   snap.WorkOrders,
	})
}

// ListWorkOrders filters work orders by status, submitter and category.
// @Summary		List work orders
// @Tags		Orders
// @Security	BearerAuth
// @Param		status		query	string	false	"pending|approved|rejected|in-progress|completed|rated"
// @Param		submitter	query	string	false	"submitter name"
// @Param		category	query	string	false	"service category"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/orders/work [GET]
func (h *Handler) ListWorkOrders(c *gin.Context) {
	f := WorkOrderFilter{
		Status:    domain.OrderStatus(c.Query("status")),
		Submitter: c.Query("submitter"),
		Category:  c.Query("category"),
	}
	if f.Status != "" && !f.Status.Valid() {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"work_orders": h.svc.WorkOrders(f)})
}

func (h *Handler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.svc.Stats())
}

// ListRepairOrders returns repair orders, optionally of one submitter.
// @Summary		List repair orders
// @Tags		Orders
// @Security	BearerAuth
// @Param		submitter	query	string	false	"submitter name"
// @Success		200	{object}	map[string]interface{}
// @Router		/orders/repairs [GET]
func (h *Handler) ListRepairOrders(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"repair_orders": h.svc.RepairOrders(c.Query("submitter"))})
}

func (h *Handler) GetOrder(c *gin.Context) {
	out, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// SubmitRepair creates a repair order and its mirrored work order.
// @Summary		Submit repair request
// @Tags		Orders
// @Security	BearerAuth
// @Param		request	body	SubmitRepairRequest	true	"repair request"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/orders/repairs [POST]
func (h *Handler) SubmitRepair(c *gin.Context) {
	var req SubmitRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "请填写完整信息")
		return
	}

	out := h.svc.SubmitRepair(c.Request.Context(), RepairInput{
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
		Photo:       req.Photo,
		Engineer:    req.Engineer,
		ETA:         req.ETA,
		Submitter:   c.GetString(middleware.CtxUserName),
	})
	response.Success(c, http.StatusCreated, out)
}

// SubmitWorkOrder creates a standalone work order of a service category.
// @Summary		Submit work order
// @Tags		Orders
// @Security	BearerAuth
// @Param		request	body	SubmitWorkOrderRequest	true	"work order"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/orders/work [POST]
func (h *Handler) SubmitWorkOrder(c *gin.Context) {
	var req SubmitWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "请填写完整信息")
		return
	}

	wo, err := h.svc.SubmitWorkOrder(c.Request.Context(), WorkOrderInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Submitter:   c.GetString(middleware.CtxUserName),
	}, req.Category)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, wo)
}

func submitForm[F ServiceForm](h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form F
		if err := c.ShouldBindJSON(&form); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "请填写完整信息")
			return
		}

		wo, err := h.svc.SubmitForm(c.Request.Context(), form, c.GetString(middleware.CtxUserName))
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, http.StatusCreated, wo)
	}
}

// Approve moves a pending order to approved.
// @Summary		Approve order
// @Tags		Orders
// @Security	BearerAuth
// @Param		id	path	string	true	"order id"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/orders/{id}/approve [POST]
func (h *Handler) Approve(c *gin.Context) {
	out, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	h.writeTransition(c, out, err)
}

func (h *Handler) Reject(c *gin.Context) {
	out, err := h.svc.Reject(c.Request.Context(), c.Param("id"))
	h.writeTransition(c, out, err)
}

// Start assigns the order to a staff member.
// @Summary		Start order
// @Tags		Orders
// @Security	BearerAuth
// @Param		id		path	string			true	"order id"
// @Param		request	body	StartRequest	false	"handler name"
// @Success		200	{object}	map[string]interface{}
// @Router		/orders/{id}/start [POST]
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	// the body is optional, including chunked requests without a length
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Handler == "" {
		req.Handler = c.GetString(middleware.CtxUserName)
	}

	out, err := h.svc.Start(c.Request.Context(), c.Param("id"), req.Handler)
	h.writeTransition(c, out, err)
}

// Complete records completion photos.
// @Summary		Complete order
// @Tags		Orders
// @Security	BearerAuth
// @Param		id		path	string			true	"order id"
// @Param		request	body	CompleteRequest	true	"1-6 completion photos"
// @Success		200	{object}	map[string]interface{}
// @Router		/orders/{id}/complete [POST]
func (h *Handler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "请上传1-6张完成照片")
		return
	}

	out, err := h.svc.Complete(c.Request.Context(), c.Param("id"), req.CompletionPhotos)
	h.writeTransition(c, out, err)
}

// Rate closes the lifecycle with a 1-5 rating.
// @Summary		Rate order
// @Tags		Orders
// @Security	BearerAuth
// @Param		id		path	string		true	"order id"
// @Param		request	body	RateRequest	true	"rating and comment"
// @Success		200	{object}	map[string]interface{}
// @Router		/orders/{id}/rate [POST]
func (h *Handler) Rate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5")
		return
	}

	out, err := h.svc.Rate(c.Request.Context(), c.Param("id"), req.Rating, req.Comment)
	h.writeTransition(c, out, err)
}

func (h *Handler) writeTransition(c *gin.Context, out MirroredOrder, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var te *TransitionError
	switch {
	case errors.Is(err, ErrOrderNotFound):
		response.Error(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.As(err, &te):
		response.ErrorWithDetails(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", te.Error(), gin.H{
			"action": te.Action,
			"status": te.From,
		})
	case errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrTooManyPhotos),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrHandlerRequired):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
	}
}
