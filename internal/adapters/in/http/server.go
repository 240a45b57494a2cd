package http

import (
	"log/slog"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/delivery"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// Server serves the /api/v1 routes. Request bodies get shape checks only;
// domain rules are enforced by the commands.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{
		h:      h,
		logger: logger.With("component", "HTTPServer"),
	}
}

// CreateDelivery handles POST /api/v1/deliveries.
func (s *Server) CreateDelivery(c echo.Context) error {
	var req NewDelivery
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	vendorID, err := bodyUUID(req.VendorID)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	var storeID *kernel.UUID
	if req.StoreID != nil {
		id, idErr := bodyUUID(*req.StoreID)
		if idErr != nil {
			return writeError(c, s.logger, idErr)
		}
		storeID = &id
	}

	items := make([]commands.RequestedItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, idErr := bodyUUID(item.ProductID)
		if idErr != nil {
			return writeError(c, s.logger, idErr)
		}
		items = append(items, commands.RequestedItem{ProductID: productID, Quantity: item.Quantity})
	}

	cmd, err := commands.NewCreateDeliveryCommand(kernel.NewUUID(), vendorID, storeID, items)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	d, err := s.h.CreateDelivery.Handle(c.Request().Context(), cmd)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/deliveries/"+d.ID().String())
	return c.JSON(http.StatusCreated, summaryFromDomain(d))
}

// GetDelivery handles GET /api/v1/deliveries/{id}.
func (s *Server) GetDelivery(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	query, err := queries.NewGetDeliveryQuery(id)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	details, err := s.h.GetDelivery.Handle(c.Request().Context(), query)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, detailsFromView(details))
}

// GetActiveDeliveries handles GET /api/v1/deliveries/active.
func (s *Server) GetActiveDeliveries(c echo.Context) error {
	list, err := s.h.GetActiveDeliveries.Handle(c.Request().Context(), queries.NewGetActiveDeliveriesQuery())
	if err != nil {
		return writeError(c, s.logger, err)
	}

	response := make([]DeliverySummary, len(list))
	for i, d := range list {
		response[i] = summaryFromView(d)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateDeliveryStatus handles PUT /api/v1/deliveries/{id}/status.
func (s *Server) UpdateDeliveryStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req StatusUpdate
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	status, err := delivery.ParseStatus(req.Status)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	cmd, err := commands.NewUpdateDeliveryStatusCommand(id, status)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	updated, err := s.h.UpdateDeliveryStatus.Handle(c.Request().Context(), cmd)
	if err != nil {
		return writeError(c, s.logger, err)
	}
	if !updated {
		return c.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "delivery " + id.String() + " not found",
		})
	}

	return c.JSON(http.StatusOK, StatusUpdated{Updated: true})
}

// AssignCourier handles POST /api/v1/deliveries/{id}/courier.
func (s *Server) AssignCourier(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req CourierAssignment
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cmd, err := commands.NewAssignCourierCommand(id, req.DriverID, req.TrackerID)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	d, err := s.h.AssignCourier.Handle(c.Request().Context(), cmd)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, summaryFromDomain(d))
}

// RecordLocation handles POST /api/v1/deliveries/{id}/locations.
func (s *Server) RecordLocation(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req NewLocation
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Lat == nil || req.Lon == nil {
		return badRequest(c, "lat and lon are required")
	}

	point, err := kernel.NewGeoPoint(*req.Lat, *req.Lon)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	var recordedAt time.Time
	if req.Timestamp != nil {
		recordedAt = *req.Timestamp
	}

	cmd, err := commands.NewRecordLocationCommand(id, point, recordedAt, req.Speed, req.Note)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	sample, err := s.h.RecordLocation.Handle(c.Request().Context(), cmd)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusCreated, sampleFromDomain(sample))
}

// AppendDeliveryNote handles POST /api/v1/deliveries/{id}/notes.
func (s *Server) AppendDeliveryNote(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req NewNote
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cmd, err := commands.NewAppendDeliveryNoteCommand(id, req.Text)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	if err = s.h.AppendDeliveryNote.Handle(c.Request().Context(), cmd); err != nil {
		return writeError(c, s.logger, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SelectStore handles GET /api/v1/vendors/{id}/store-match.
func (s *Server) SelectStore(c echo.Context) error {
	vendorID, err := pathUUID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	productIDs, err := queryUUIDs(c, "productId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	query, err := queries.NewSelectStoreQuery(vendorID, productIDs)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	match, err := s.h.SelectStore.Handle(c.Request().Context(), query)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, StoreMatch{
		Store:      toStore(match.Store),
		DistanceKm: match.DistanceKm,
	})
}
