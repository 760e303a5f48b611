package http

import (
	"errors"
	"net/http"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/application/usecases/queries"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/core/domain/services"

	"github.com/labstack/echo/v4"
)

// CreateOrder handles POST /api/v1/orders. With bearer auth enabled the
// token subject replaces requested_by.
func (s *Server) CreateOrder(c echo.Context) error {
	var body NewOrder
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	requestedBy := body.RequestedBy
	if subject, ok := subjectFrom(c); ok {
		requestedBy = subject
	}

	items := make([]services.ItemRequest, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, services.ItemRequest{
			MachineSlug: it.Machine,
			Prompt:      it.Prompt,
			Parameters:  kernel.NewParameters(it.Parameters),
			Quantity:    it.Quantity,
		})
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, body.Title, body.Prompt, requestedBy, items)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.uc.CreateOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}

	return s.respondOrder(c, http.StatusCreated, orderID)
}

// ListOrders handles GET /api/v1/orders.
func (s *Server) ListOrders(c echo.Context) error {
	var (
		statusName    *string
		limit, offset *int
	)
	if err := errors.Join(
		queryParam(c, "status", &statusName),
		queryParam(c, "limit", &limit),
		queryParam(c, "offset", &offset),
	); err != nil {
		return s.fail(c, err)
	}

	var status *order.Status
	if statusName != nil {
		parsed, err := order.ParseStatus(*statusName)
		if err != nil {
			return s.fail(c, err)
		}
		status = &parsed
	}

	query, err := queries.NewListOrdersQuery(status, deref(limit), deref(offset))
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	page := OrderPage{Orders: make([]OrderSummary, 0, len(res.Orders)), Total: res.Total}
	for _, o := range res.Orders {
		page.Orders = append(page.Orders, toOrderSummary(o))
	}
	return c.JSON(http.StatusOK, page)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return s.fail(c, err)
	}
	return s.respondOrder(c, http.StatusOK, orderID)
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewCancelOrderCommand(orderID)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.uc.CancelOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.respondOrder(c, http.StatusOK, orderID)
}

// RetryOrder handles POST /api/v1/orders/{orderId}/retry.
func (s *Server) RetryOrder(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewRetryOrderCommand(orderID)
	if err != nil {
		return s.fail(c, err)
	}
	if _, err = s.uc.RetryOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.respondOrder(c, http.StatusOK, orderID)
}

func (s *Server) respondOrder(c echo.Context, code int, orderID kernel.UUID) error {
	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(code, toOrder(res))
}
