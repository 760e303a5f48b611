package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

// RouterConfig assembles the echo instance.
type RouterConfig struct {
	// Doc is the OpenAPI document used for request validation and the swagger UI.
	Doc *openapi3.T
	// JWTSecret enables bearer auth on /api/v1 when not empty.
	JWTSecret string
	Logger    *slog.Logger
	LogLevel  log.Lvl
}

// NewRouter builds the echo instance serving /health, /swagger and /api/v1.
func NewRouter(cfg RouterConfig, server *Server) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(cfg.LogLevel)
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(RequestLogger(cfg.Logger))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	if err := registerSwagger(cfg.Doc); err != nil {
		return nil, err
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	validator, err := RequestValidator(cfg.Doc)
	if err != nil {
		return nil, err
	}
	api := e.Group("/api/v1")
	if cfg.JWTSecret != "" {
		api.Use(BearerAuth([]byte(cfg.JWTSecret)))
	}
	api.Use(validator)
	server.Register(api)

	return e, nil
}

// errorHandler renders echo's own errors, such as unknown routes, as Error bodies.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}
	_ = c.JSON(code, Error{Code: code, Message: message})
}

// openAPIDoc serves the embedded document to the swagger UI.
type openAPIDoc struct {
	json string
}

func (d openAPIDoc) ReadDoc() string { return d.json }

func registerSwagger(doc *openapi3.T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if swag.GetSwagger(swag.Name) == nil {
		swag.Register(swag.Name, openAPIDoc{json: string(data)})
	}
	return nil
}
