package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
)

// ProductInput is a request to create a product. Status defaults to true.
type ProductInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Price       float64  `json:"price"`
	Status      *bool    `json:"status"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Thumbnails  []string `json:"thumbnails"`
}

// Validate reports the first missing or out-of-range field.
func (in ProductInput) Validate() error {
	required := []struct {
		name, value string
	}{
		{"title", in.Title},
		{"description", in.Description},
		{"code", in.Code},
		{"category", in.Category},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", common.ErrorValidation, f.name)
		}
	}
	if in.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than zero", common.ErrorValidation)
	}
	if in.Stock <= 0 {
		return fmt.Errorf("%w: stock must be greater than zero", common.ErrorValidation)
	}
	return nil
}

// ProductService manages the catalog on behalf of an authenticated actor.
type ProductService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProductService(m repomanager.RepositoryManager, logger logging.Logger) *ProductService {
	return &ProductService{repomanager: m, logger: logger}
}

func (s *ProductService) List(ctx context.Context, opts products.ListOptions) (*products.Page, error) {
	return s.repomanager.Products().List(ctx, opts)
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repomanager.Products().GetByID(ctx, id)
}

// Add creates a product. Premium actors own what they create; admin
// products are owned by ADMIN. Plain users may not create products.
func (s *ProductService) Add(ctx context.Context, actor auth.Session, in ProductInput) (*models.Product, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RolePremium {
		return nil, fmt.Errorf("%w: role %s cannot create products", common.ErrorForbidden, actor.Role)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p := models.Product{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Price:       in.Price,
		Status:      true,
		Stock:       in.Stock,
		Category:    in.Category,
		Thumbnails:  append([]string{}, in.Thumbnails...),
		Owner:       models.DefaultProductOwner,
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if actor.Role == models.RolePremium {
		p.Owner = actor.Email
	}

	return s.repomanager.Products().Add(ctx, p)
}

// Update patches a product the actor may manage.
func (s *ProductService) Update(ctx context.Context, actor auth.Session, id string, patch models.ProductPatch) (*models.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repomanager.Products().Update(ctx, id, patch)
}

// Delete removes a product the actor may manage.
func (s *ProductService) Delete(ctx context.Context, actor auth.Session, id string) error {
	if err := s.requireOwner(ctx, actor, id); err != nil {
		return err
	}
	return s.repomanager.Products().Delete(ctx, id)
}

// ValidOwner reports whether actor may manage product id: administrators
// manage everything, premium users their own products, users nothing.
func (s *ProductService) ValidOwner(ctx context.Context, actor auth.Session, id string) (bool, error) {
	p, err := s.repomanager.Products().GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RolePremium:
		return p.Owner == actor.Email, nil
	default:
		return false, nil
	}
}

func (s *ProductService) requireOwner(ctx context.Context, actor auth.Session, id string) error {
	ok, err := s.ValidOwner(ctx, actor, id)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn(ctx, "product change refused", "product_id", id, "user_id", actor.UserID)
		return fmt.Errorf("%w: product %s is not managed by %s", common.ErrorForbidden, id, actor.Email)
	}
	return nil
}

func validatePatch(p models.ProductPatch) error {
	for name, v := range map[string]*string{"title": p.Title, "description": p.Description, "code": p.Code, "category": p.Category} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s must not be empty", common.ErrorValidation, name)
		}
	}
	if p.Price != nil && *p.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than zero", common.ErrorValidation)
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", common.ErrorValidation)
	}
	return nil
}
