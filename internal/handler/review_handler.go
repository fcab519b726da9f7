package handler

import (
	"net/http"

	"ecshop/internal/authz"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	reviewUC *usecase.ReviewUsecase
}

func NewReviewHandler(reviewUC *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{reviewUC: reviewUC}
}

type reviewRequest struct {
	ProductID int64  `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *ReviewHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/reviews")

	// 公開
	g.GET("/product/:productId", h.ListByProduct)
	g.GET("/product/:productId/rating", h.Rating)

	g.POST("", h.Create, gd.Require(authz.ReviewsWrite)...)
	g.PUT("/:reviewId", h.Update, gd.Require(authz.ReviewsWrite)...)
	g.DELETE("/:reviewId", h.Delete, gd.Require(authz.ReviewsWrite)...)
}

func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}
	out, err := h.reviewUC.ListByProduct(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) Rating(c echo.Context) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}
	out, err := h.reviewUC.Rating(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) Create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	review, err := h.reviewUC.Create(c.Request().Context(), userID, usecase.ReviewInput{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	reviewID, ok := paramID(c, "reviewId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid review id"})
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	review, err := h.reviewUC.Update(c.Request().Context(), userID, reviewID, req.Rating, req.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	reviewID, ok := paramID(c, "reviewId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid review id"})
	}

	if err := h.reviewUC.Delete(c.Request().Context(), userID, reviewID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Review deleted successfully"})
}
