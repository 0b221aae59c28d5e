package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trivedii/library-management-api/library/internal/errs"
	"github.com/trivedii/library-management-api/library/internal/handler"
	service_mocks "github.com/trivedii/library-management-api/library/internal/handler/mocks"
	"github.com/trivedii/library-management-api/library/internal/model"
	"github.com/trivedii/library-management-api/pkg/validate"
)

func newTestRouter(t *testing.T) (*echo.Echo, *service_mocks.MockBookService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	svc := service_mocks.NewMockBookService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(svc, log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.POST("/books", h.AddBook)
	e.PATCH("/books", h.UpdateBook)
	e.GET("/books/search", h.SearchBooks)
	e.DELETE("/books/delete-batch", h.DeleteBooksInBatch)
	e.DELETE("/books/:bookId", h.DeleteBook)
	return e, svc
}

func TestHandler_AddBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"title":"Dune","author":"Frank Herbert","isbn":"0441013597","publishedYear":1965,"availabilityStatus":"Available"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), model.CreateBookRequest{
						Title:         "Dune",
						Author:        "Frank Herbert",
						ISBN:          "0441013597",
						PublishedYear: 1965,
						Status:        model.StatusAvailable,
					}).
					Return(int64(7), nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":7,"message":"Save successful"}`,
			},
		},
		{
			name:         "err. isbn not 10 or 13 digits",
			body:         `{"title":"Dune","author":"Frank Herbert","isbn":"123","publishedYear":1965,"availabilityStatus":"Available"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
		{
			name: "err. duplicate isbn",
			body: `{"title":"Dune","author":"Frank Herbert","isbn":"0441013597","publishedYear":1965,"availabilityStatus":"Available"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), gomock.Any()).
					Return(int64(0), errs.ErrDuplicateISBN)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book with this isbn already exists"}`,
			},
		},
		{
			name: "err. invalid year",
			body: `{"title":"Dune","author":"Frank Herbert","isbn":"0441013597","publishedYear":1200,"availabilityStatus":"Available"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), gomock.Any()).
					Return(int64(0), errs.ErrInvalidData)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid book data"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_UpdateBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"id":3,"availabilityStatus":"Available"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					UpdateBook(context.Background(), gomock.Any()).
					Return(model.UpdateResult{Changed: true, EventEmitted: true}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":3,"message":"Update successful"}`,
			},
		},
		{
			name: "no update required",
			body: `{"id":3,"availabilityStatus":"Available"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					UpdateBook(context.Background(), gomock.Any()).
					Return(model.UpdateResult{Changed: false}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":3,"message":"No update Required"}`,
			},
		},
		{
			name: "err. not found",
			body: `{"id":99}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					UpdateBook(context.Background(), gomock.Any()).
					Return(model.UpdateResult{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
		},
		{
			name: "err. update committed but publish failed",
			body: `{"id":3,"availabilityStatus":"Available"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					UpdateBook(context.Background(), gomock.Any()).
					Return(model.UpdateResult{Changed: true}, errs.ErrEventPublish)
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"event publish failed"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodPatch, "/books", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_SearchBooks(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	year := 1965

	var tests = []struct {
		name         string
		target       string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok with defaults",
			target: "/books/search?searchText=dune",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					SearchBooks(context.Background(), model.SearchRequest{Text: "dune", Limit: 25, Offset: 0}).
					Return(model.SearchResult{
						TotalCount: 1,
						Books: []model.Book{{
							ID:            3,
							Title:         "Dune",
							Author:        "Frank Herbert",
							ISBN:          "0441013597",
							PublishedYear: 1965,
							Status:        model.StatusAvailable,
						}},
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"totalCount":1,"books":[{"id":3,"title":"Dune","author":"Frank Herbert","isbn":"0441013597","publishedYear":1965,"availabilityStatus":"Available"}]}`,
			},
		},
		{
			name:   "ok with year filter",
			target: "/books/search?publishedYear=1965&limit=10&offset=5",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					SearchBooks(context.Background(), model.SearchRequest{Year: &year, Limit: 10, Offset: 5}).
					Return(model.SearchResult{TotalCount: 0, Books: []model.Book{}}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"totalCount":0,"books":[]}`,
			},
		},
		{
			name:   "err. short text",
			target: "/books/search?searchText=ab",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					SearchBooks(context.Background(), model.SearchRequest{Text: "ab", Limit: 25, Offset: 0}).
					Return(model.SearchResult{}, errs.ErrInvalidData)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid book data"}`,
			},
		},
		{
			name:         "err. limit is not a number",
			target:       "/books/search?limit=abc",
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"limit is invalid"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		target       string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok",
			target: "/books/5",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBook(context.Background(), int64(5)).Return(nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":5,"message":"Delete successful"}`,
			},
		},
		{
			name:   "err. not found",
			target: "/books/99",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBook(context.Background(), int64(99)).Return(errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
		},
		{
			name:   "err. borrowed",
			target: "/books/5",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBook(context.Background(), int64(5)).Return(errs.ErrBookBorrowed)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book is currently borrowed"}`,
			},
		},
		{
			name:         "err. id is not a number",
			target:       "/books/abc",
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"bookId is invalid"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodDelete, tt.target, http.NoBody)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_DeleteBooksInBatch(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok. mixed outcome",
			body: `[1,2,3]`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					DeleteBooks(context.Background(), []int64{1, 2, 3}).
					Return(model.BatchDeleteResult{
						DeletedIDs:    []int64{3},
						NotDeletedIDs: []int64{1, 2},
						Reasons: map[int64]string{
							1: model.ReasonNotFound,
							2: model.ReasonBorrowed,
						},
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"deletedIds":[3],"notDeletedIds":[1,2],"reasons":{"1":"Book does not exist","2":"Book is currently borrowed"}}`,
			},
		},
		{
			name: "err. too many ids",
			body: `[1,2,3]`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					DeleteBooks(context.Background(), []int64{1, 2, 3}).
					Return(model.BatchDeleteResult{}, errs.ErrTooManyIDs)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"cannot delete more than 100 books at once"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newTestRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodDelete, "/books/delete-batch", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
