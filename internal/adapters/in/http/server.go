package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/application/usecases/queries"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/order"
	"artfactory/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// CommandHandler runs a command that returns nothing but an error.
type CommandHandler[C any] interface {
	Handle(ctx context.Context, cmd C) error
}

// Handler runs a query, or a command with a result.
type Handler[In, Out any] interface {
	Handle(ctx context.Context, in In) (Out, error)
}

// UseCases are the application handlers served over HTTP.
type UseCases struct {
	CreateOrder CommandHandler[commands.CreateOrderCommand]
	CancelOrder CommandHandler[commands.CancelOrderCommand]
	RetryOrder  Handler[commands.RetryOrderCommand, int]
	GetOrder    Handler[queries.GetOrderQuery, queries.GetOrderQueryResponse]
	ListOrders  Handler[queries.ListOrdersQuery, queries.ListOrdersQueryResponse]

	ListProducts          Handler[queries.ListProductsQuery, queries.ListProductsQueryResponse]
	GetProduct            Handler[queries.GetProductQuery, queries.ProductView]
	UpdateProduct         CommandHandler[commands.UpdateProductCommand]
	ToggleProductFavorite Handler[commands.ToggleProductFavoriteCommand, bool]
	DeleteProduct         CommandHandler[commands.DeleteProductCommand]

	ListMachines              Handler[queries.ListMachinesQuery, queries.ListMachinesQueryResponse]
	GetMachine                Handler[queries.GetMachineQuery, queries.MachineView]
	CreateMachine             CommandHandler[commands.CreateMachineCommand]
	UpdateMachine             CommandHandler[commands.UpdateMachineCommand]
	SetMachineActive          CommandHandler[commands.SetMachineActiveCommand]
	ValidateMachineParameters Handler[queries.ValidateMachineParametersQuery, queries.ValidateMachineParametersQueryResponse]

	GetWorkers Handler[queries.GetWorkersQuery, queries.GetWorkersQueryResponse]
}

// Server translates HTTP requests into commands and queries and maps the
// results back to JSON.
type Server struct {
	uc     UseCases
	logger *slog.Logger
}

func NewServer(uc UseCases, logger *slog.Logger) *Server {
	return &Server{uc: uc, logger: logger.With("component", "http")}
}

// Register mounts the API routes on g, which is expected to be /api/v1.
func (s *Server) Register(g *echo.Group) {
	g.POST("/orders", s.CreateOrder)
	g.GET("/orders", s.ListOrders)
	g.GET("/orders/:orderId", s.GetOrder)
	g.POST("/orders/:orderId/cancel", s.CancelOrder)
	g.POST("/orders/:orderId/retry", s.RetryOrder)

	g.GET("/products", s.ListProducts)
	g.GET("/products/:productId", s.GetProduct)
	g.PATCH("/products/:productId", s.UpdateProduct)
	g.DELETE("/products/:productId", s.DeleteProduct)
	g.POST("/products/:productId/favorite", s.ToggleProductFavorite)

	g.GET("/machines", s.ListMachines)
	g.POST("/machines", s.CreateMachine)
	g.GET("/machines/:slug", s.GetMachine)
	g.PUT("/machines/:slug", s.UpdateMachine)
	g.POST("/machines/:slug/activate", s.ActivateMachine)
	g.POST("/machines/:slug/deactivate", s.DeactivateMachine)
	g.POST("/machines/:slug/validate", s.ValidateMachineParameters)

	g.GET("/workers", s.GetWorkers)
}

// Error is the body of every failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusOf maps domain and application errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrObjectAlreadyExists),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, machine.ErrMachineInactive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an Error body. Internal errors are logged and their
// details are not exposed.
func (s *Server) fail(c echo.Context, err error) error {
	code := statusOf(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		message = http.StatusText(code)
	}
	return c.JSON(code, Error{Code: code, Message: message})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: message})
}
