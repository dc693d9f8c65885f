package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"
	"hlg-fitness/internal/ws"
	"hlg-fitness/pkg/storage"
	"hlg-fitness/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductInput carries the editable fields of a product, from JSON or a multipart form.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Category    string          `json:"category" validate:"required,product_category"`
	Size        string          `json:"size" validate:"required,max=20"`
	Color       string          `json:"color" validate:"required,max=50"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock" validate:"required,gte=0"`
	MinStock    *int            `json:"minStock" validate:"omitempty,gte=0"`
	Image       *string         `json:"image"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, req *ProductInput, image *multipart.FileHeader, actor string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, req *ProductInput, image *multipart.FileHeader, actor string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint, actor string) error
	GetAllProducts(filter repository.ProductFilter) ([]model.Product, error)
	GetProductByID(id uint) (*model.Product, error)
	GetLowStock() ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	store       storage.Storage
	events      EventPublisher
	log         *zap.Logger
}

func NewProductService(pRepo repository.ProductRepository, db *gorm.DB, store storage.Storage, events EventPublisher) ProductService {
	return &productService{
		productRepo: pRepo,
		db:          db,
		store:       store,
		events:      events,
		log:         zap.L().Named("product"),
	}
}

func (s *productService) validate(req *ProductInput) error {
	if err := validator.FirstError(req); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if req.Price.IsNegative() {
		return validationf("validation failed: price must not be negative")
	}
	return nil
}

func (s *productService) upload(ctx context.Context, image *multipart.FileHeader) (*string, error) {
	if image == nil {
		return nil, nil
	}
	ref, err := storage.Upload(ctx, s.store, image, storage.ProductImages)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrFileType) {
			return nil, &ValidationError{Message: err.Error()}
		}
		return nil, err
	}
	return &ref, nil
}

func (s *productService) CreateProduct(ctx context.Context, req *ProductInput, image *multipart.FileHeader, actor string) (*model.Product, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    model.ProductCategory(req.Category),
		Size:        req.Size,
		Color:       req.Color,
		Price:       req.Price.Round(2),
		Stock:       *req.Stock,
		MinStock:    model.DefaultMinStock,
		Image:       req.Image,
	}
	if req.MinStock != nil {
		product.MinStock = *req.MinStock
	}
	product.CreatedBy = actor
	product.UpdatedBy = actor

	ref, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		product.Image = ref
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	s.publish(ws.Event{
		Type:    ws.EventProductCreated,
		Data:    product,
		User:    actor,
		Message: fmt.Sprintf("%s created product '%s'", actor, product.Name),
	})
	return product, nil
}

// UpdateProduct locks the row so a direct stock correction cannot interleave with a sale.
func (s *productService) UpdateProduct(ctx context.Context, id uint, req *ProductInput, image *multipart.FileHeader, actor string) (*model.Product, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	ref, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	var existing model.Product
	var oldImage *string
	var oldStock int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		oldStock = existing.Stock

		existing.Name = strings.TrimSpace(req.Name)
		existing.Description = req.Description
		existing.Category = model.ProductCategory(req.Category)
		existing.Size = req.Size
		existing.Color = req.Color
		existing.Price = req.Price.Round(2)
		existing.Stock = *req.Stock
		if req.MinStock != nil {
			existing.MinStock = *req.MinStock
		}
		switch {
		case ref != nil:
			oldImage = existing.Image
			existing.Image = ref
		case req.Image != nil:
			existing.Image = req.Image
		}
		existing.UpdatedBy = actor

		return tx.Save(&existing).Error
	})
	if err != nil {
		if ref != nil {
			storage.Replace(ctx, s.store, ref)
		}
		return nil, err
	}
	if ref != nil {
		storage.Replace(ctx, s.store, oldImage)
	}

	s.publish(ws.Event{
		Type: ws.EventProductUpdated,
		Data: map[string]interface{}{
			"product":  existing,
			"oldStock": oldStock,
			"newStock": existing.Stock,
		},
		User:    actor,
		Message: fmt.Sprintf("%s updated product '%s'", actor, existing.Name),
	})
	if existing.IsLowStock() {
		s.publish(ws.Event{
			Type:    ws.EventLowStock,
			Data:    lowStockPayload(existing),
			Message: fmt.Sprintf("%s is low on stock (%d left)", existing.Name, existing.Stock),
		})
	}
	return &existing, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint, actor string) error {
	product, err := s.GetProductByID(id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(id, actor); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	storage.Replace(ctx, s.store, product.Image)

	s.log.Info("product deleted", zap.Uint("product_id", id), zap.String("by", actor))
	s.publish(ws.Event{
		Type:    ws.EventProductDeleted,
		Data:    map[string]interface{}{"id": id},
		User:    actor,
		Message: fmt.Sprintf("%s deleted product '%s'", actor, product.Name),
	})
	return nil
}

func (s *productService) GetAllProducts(filter repository.ProductFilter) ([]model.Product, error) {
	return s.productRepo.FindAll(filter)
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// GetLowStock lists products at or below their minimum, scarcest first.
func (s *productService) GetLowStock() ([]model.Product, error) {
	return s.productRepo.FindLowStock()
}

func (s *productService) publish(event ws.Event) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
