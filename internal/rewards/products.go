package rewards

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/model"
)

// ProductInput holds the editable fields of a product.
type ProductInput struct {
	Name   string
	Points int
}

func (s *Service) validateProduct(doc *model.Document, actorID int, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return s.reject(doc, actorID, model.LinkProducts, "A product needs a name.")
	}
	if in.Points <= 0 {
		return s.reject(doc, actorID, model.LinkProducts, "Product %q must cost at least 1 point.", in.Name)
	}
	return nil
}

// CreateProduct adds a product to the catalog (admin only) and announces
// it to every common user, in ascending user ID order.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (model.Product, error) {
	var created model.Product
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		if err := s.validateProduct(doc, actor.ID, &in); err != nil {
			return err
		}

		created = doc.AddProduct(model.Product{Name: in.Name, Points: in.Points})

		now := s.now()
		recipients := userIDs(doc, func(u model.User) bool { return u.Role == model.RoleCommon })
		for _, id := range recipients {
			doc.AddNotification(&id,
				fmt.Sprintf("New product available: %q for %d points.", created.Name, created.Points),
				model.LinkProducts, now,
			)
		}
		s.logger.Info("product created",
			zap.Int("product_id", created.ID),
			zap.Int("points", created.Points),
			zap.Int("recipients", len(recipients)),
		)
		return nil
	})
	return created, err
}

// UpdateProduct edits a product (admin only). Moderated requests keep
// their outcome; pending ones will be approved at the new cost.
func (s *Service) UpdateProduct(ctx context.Context, productID int, in ProductInput) (model.Product, error) {
	var updated model.Product
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		p, ok := doc.Product(productID)
		if !ok {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		if err := s.validateProduct(doc, actor.ID, &in); err != nil {
			return err
		}

		p.Name = in.Name
		p.Points = in.Points
		updated = *p
		s.logger.Info("product updated", zap.Int("product_id", productID))
		return nil
	})
	return updated, err
}

// DeleteProduct removes a product and all its requests (admin only).
// Users with a pending request for it are told it was withdrawn.
func (s *Service) DeleteProduct(ctx context.Context, productID int) error {
	return s.docs.Mutate(ctx, func(doc *model.Document) error {
		if _, err := s.admin(doc); err != nil {
			return err
		}
		p, ok := doc.Product(productID)
		if !ok {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		name := p.Name

		var affected []int
		for _, r := range doc.Requests {
			if r.ProductID == productID && r.IsPending() {
				affected = append(affected, r.UserID)
			}
		}
		slices.Sort(affected)
		affected = slices.Compact(affected)

		doc.RemoveProduct(productID)

		now := s.now()
		for _, id := range affected {
			doc.AddNotification(&id,
				fmt.Sprintf("%q was removed from the catalog; your pending request was withdrawn.", name),
				model.LinkRequestedProducts, now,
			)
		}
		s.logger.Info("product deleted", zap.Int("product_id", productID), zap.Int("withdrawn", len(affected)))
		return nil
	})
}

// Products lists the catalog, cheapest first.
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := s.docs.View(ctx, func(doc *model.Document) error {
		if _, err := s.caller(doc); err != nil {
			return err
		}
		products = slices.Clone(doc.Products)
		return nil
	})
	slices.SortFunc(products, func(a, b model.Product) int {
		if a.Points != b.Points {
			return a.Points - b.Points
		}
		return a.ID - b.ID
	})
	return products, err
}
