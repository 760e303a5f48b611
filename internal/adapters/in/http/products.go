package http

import (
	"errors"
	"net/http"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/application/usecases/queries"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// ListProducts handles GET /api/v1/products, the gallery.
func (s *Server) ListProducts(c echo.Context) error {
	var (
		mediaType, machineSlug, tag, search *string
		orderID                             *string
		favorite                            *bool
		limit, offset                       *int
	)
	if err := errors.Join(
		queryParam(c, "media_type", &mediaType),
		queryParam(c, "machine", &machineSlug),
		queryParam(c, "order_id", &orderID),
		queryParam(c, "favorite", &favorite),
		queryParam(c, "tag", &tag),
		queryParam(c, "q", &search),
		queryParam(c, "limit", &limit),
		queryParam(c, "offset", &offset),
	); err != nil {
		return s.fail(c, err)
	}

	filter := queries.ProductFilter{
		MachineSlug: deref(machineSlug),
		Favorite:    favorite,
		Tag:         deref(tag),
		Search:      deref(search),
		Limit:       deref(limit),
		Offset:      deref(offset),
	}
	if mediaType != nil {
		mt, err := kernel.ParseMediaType(*mediaType)
		if err != nil {
			return s.fail(c, err)
		}
		filter.MediaType = &mt
	}
	if orderID != nil {
		id, err := kernel.UUIDFromString(*orderID)
		if err != nil {
			return s.fail(c, errs.NewValueIsInvalidErrorWithCause("order_id", err))
		}
		filter.OrderID = &id
	}

	query, err := queries.NewListProductsQuery(filter)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.ListProducts.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	page := ProductPage{Products: make([]Product, 0, len(res.Products)), Total: res.Total}
	for _, p := range res.Products {
		page.Products = append(page.Products, toProduct(p))
	}
	return c.JSON(http.StatusOK, page)
}

// GetProduct handles GET /api/v1/products/{productId}.
func (s *Server) GetProduct(c echo.Context) error {
	productID, err := pathUUID(c, "productId")
	if err != nil {
		return s.fail(c, err)
	}
	return s.respondProduct(c, productID)
}

// UpdateProduct handles PATCH /api/v1/products/{productId}.
func (s *Server) UpdateProduct(c echo.Context) error {
	productID, err := pathUUID(c, "productId")
	if err != nil {
		return s.fail(c, err)
	}
	var body ProductPatch
	if err = c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cmd, err := commands.NewUpdateProductCommand(productID, body.Title, body.Tags, body.Favorite)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.uc.UpdateProduct.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return s.respondProduct(c, productID)
}

// DeleteProduct handles DELETE /api/v1/products/{productId}.
func (s *Server) DeleteProduct(c echo.Context) error {
	productID, err := pathUUID(c, "productId")
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewDeleteProductCommand(productID)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.uc.DeleteProduct.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleProductFavorite handles POST /api/v1/products/{productId}/favorite.
func (s *Server) ToggleProductFavorite(c echo.Context) error {
	productID, err := pathUUID(c, "productId")
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewToggleProductFavoriteCommand(productID)
	if err != nil {
		return s.fail(c, err)
	}
	favorite, err := s.uc.ToggleProductFavorite.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, Favorite{Favorite: favorite})
}

func (s *Server) respondProduct(c echo.Context, productID kernel.UUID) error {
	query, err := queries.NewGetProductQuery(productID)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.GetProduct.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toProduct(res))
}
