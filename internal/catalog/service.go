package catalog

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
	"github.com/LeNguyen02/AuctionProduct/internal/store"
)

// ErrInvalidInput rejects product data that fails validation.
var ErrInvalidInput = errors.New("invalid product data")

// ImageStore removes stored image files when a product is deleted or its
// images replaced. Satisfied by uploads.Store.
type ImageStore interface {
	Remove(paths []string)
}

// Publisher is the event sink for catalog changes.
type Publisher interface {
	Publish(models.Event)
}

// Service implements the admin product operations. Bidding never goes
// through here; on this path the price and leader change only via the
// explicit correction fields of Update.
type Service struct {
	store  store.Store
	images ImageStore
	pub    Publisher
}

func NewService(st store.Store, images ImageStore, pub Publisher) *Service {
	return &Service{store: st, images: images, pub: pub}
}

type CreateParams struct {
	Name          string
	StartingPrice decimal.Decimal
	Images        []string
	Description   string
}

// Create adds a product with no bids: current price and leader start unset.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Product, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errors.Wrap(ErrInvalidInput, "name is required")
	}
	if !params.StartingPrice.IsPositive() {
		return nil, errors.Wrap(ErrInvalidInput, "starting price must be positive")
	}

	product := &models.Product{
		Name:          name,
		StartingPrice: params.StartingPrice,
		Images:        params.Images,
		Description:   params.Description,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"product": product.ID, "name": name}).Info("product created")
	s.pub.Publish(models.Event{Kind: models.EventProductsChanged})
	return product, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	return s.store.ListProducts(ctx)
}

// UpdateParams carries a partial update. Nil fields are left untouched.
// CurrentPrice and CurrentLeader form the admin correction path: they
// override the leading bid directly, and an explicit empty leader clears the
// price with it.
type UpdateParams struct {
	Name          *string
	StartingPrice *decimal.Decimal
	Description   *string
	// Images, when non-nil, replaces the stored image list; the old files
	// are removed from disk.
	Images        []string
	CurrentPrice  *decimal.Decimal
	CurrentLeader *string
}

func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, errors.Wrap(ErrInvalidInput, "name is required")
		}
		product.Name = name
	}
	if params.StartingPrice != nil {
		if !params.StartingPrice.IsPositive() {
			return nil, errors.Wrap(ErrInvalidInput, "starting price must be positive")
		}
		product.StartingPrice = *params.StartingPrice
	}
	if params.Description != nil {
		product.Description = *params.Description
	}

	var replaced []string
	if params.Images != nil {
		replaced = product.Images
		product.Images = params.Images
	}

	if params.CurrentPrice != nil {
		price := *params.CurrentPrice
		product.CurrentPrice = &price
	}
	if params.CurrentLeader != nil {
		leader := strings.TrimSpace(*params.CurrentLeader)
		if leader == "" {
			// clearing the leader clears the price with it
			product.CurrentLeader = nil
			product.CurrentPrice = nil
		} else {
			product.CurrentLeader = &leader
		}
	}
	if (product.CurrentPrice == nil) != (product.CurrentLeader == nil) {
		return nil, errors.Wrap(ErrInvalidInput, "current price and leader must be set together")
	}
	// holds whichever side of the pair the request touched, including a
	// starting price raised past the leading bid
	if product.CurrentPrice != nil && product.CurrentPrice.LessThan(product.StartingPrice) {
		return nil, errors.Wrap(ErrInvalidInput, "current price cannot be below the starting price")
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	if len(replaced) > 0 {
		s.images.Remove(replaced)
	}

	log.WithField("product", id).Info("product updated")
	s.pub.Publish(models.Event{Kind: models.EventProductsChanged})
	return product, nil
}

// Delete removes the product, its bid history and its stored image files.
func (s *Service) Delete(ctx context.Context, id int64) error {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if len(product.Images) > 0 {
		s.images.Remove(product.Images)
	}

	log.WithField("product", id).Info("product deleted")
	s.pub.Publish(models.Event{Kind: models.EventProductsChanged})
	return nil
}
