package handler

import (
	"context"

	"github.com/trivedii/library-management-api/library/internal/model"
	"github.com/trivedii/library-management-api/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (int64, error)
	UpdateBook(ctx context.Context, req model.UpdateBookRequest) (model.UpdateResult, error)
	DeleteBook(ctx context.Context, id int64) error
	DeleteBooks(ctx context.Context, ids []int64) (model.BatchDeleteResult, error)
	SearchBooks(ctx context.Context, req model.SearchRequest) (model.SearchResult, error)
}

var _ BookService = (*service.Service)(nil)
