package handler

import (
	"net/http"
	"strconv"

	md "github.com/trivedii/library-management-api/pkg/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/trivedii/library-management-api/library/internal/errs"
	"github.com/trivedii/library-management-api/library/internal/model"
	"github.com/trivedii/library-management-api/pkg/validate"
	"go.uber.org/zap"
)

const (
	msgSaveSuccessful   = "Save successful"
	msgUpdateSuccessful = "Update successful"
	msgNoUpdateRequired = "No update Required"
	msgDeleteSuccessful = "Delete successful"
)

const (
	defaultSearchLimit  = 25
	defaultSearchOffset = 0
)

type Handler struct {
	bookSvc BookService
	log     *zap.Logger
}

func New(bookSvc BookService, log *zap.Logger) *Handler {
	return &Handler{
		bookSvc: bookSvc,
		log:     log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/books", h.AddBook)
	api.PATCH("/books", h.UpdateBook)
	api.GET("/books/search", h.SearchBooks)
	api.DELETE("/books/delete-batch", h.DeleteBooksInBatch)
	api.DELETE("/books/:bookId", h.DeleteBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type messageResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

func (h *Handler) AddBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.bookSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{ID: id, Message: msgSaveSuccessful})
}

func (h *Handler) UpdateBook(c echo.Context) error {
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.bookSvc.UpdateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	msg := msgUpdateSuccessful
	if !res.Changed {
		msg = msgNoUpdateRequired
	}
	return c.JSON(http.StatusOK, messageResponse{ID: req.ID, Message: msg})
}

func (h *Handler) SearchBooks(c echo.Context) error {
	req := model.SearchRequest{
		Text:   c.QueryParam("searchText"),
		Limit:  defaultSearchLimit,
		Offset: defaultSearchOffset,
	}

	var err error
	if yearParam := c.QueryParam("publishedYear"); yearParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("publishedYear is invalid"))
		}
		req.Year = &year
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if req.Limit, err = strconv.Atoi(limitParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("limit is invalid"))
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if req.Offset, err = strconv.Atoi(offsetParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("offset is invalid"))
		}
	}

	res, err := h.bookSvc.SearchBooks(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("bookId is invalid"))
	}

	if err := h.bookSvc.DeleteBook(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{ID: id, Message: msgDeleteSuccessful})
}

func (h *Handler) DeleteBooksInBatch(c echo.Context) error {
	var ids []int64
	if err := c.Bind(&ids); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.bookSvc.DeleteBooks(c.Request().Context(), ids)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrDuplicateISBN),
		errors.Is(err, errs.ErrBookBorrowed),
		errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalidData),
		errors.Is(err, errs.ErrTooManyIDs):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
