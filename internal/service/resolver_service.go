package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taxlink/internal/domain"
	"taxlink/internal/ingest"
	"taxlink/internal/port"
	"taxlink/internal/refcache"
)

// References holds the lookup tables built before a bulk validation pass.
// The product map carries both the exact-case and lower-cased key for every
// name, so case-insensitive matching needs no second pass.
type References struct {
	Buyers   map[string]domain.Buyer
	Products map[string]domain.Product
}

// Product returns the product for a name, trying exact case first.
func (r *References) Product(name string) (domain.Product, bool) {
	if p, ok := r.Products[name]; ok {
		return p, true
	}
	p, ok := r.Products[strings.ToLower(name)]
	return p, ok
}

// ResolverService builds reference lookup tables for bulk validation.
type ResolverService interface {
	ResolveReferences(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow) (*References, error)
}

type resolverService struct {
	buyerRepo   port.BuyerRepository
	productRepo port.ProductRepository
	cache       *refcache.Cache
}

// NewResolverService creates a ResolverService. The cache is owned by the
// caller and shared across requests; it may be nil to disable caching.
func NewResolverService(buyerRepo port.BuyerRepository, productRepo port.ProductRepository, cache *refcache.Cache) ResolverService {
	return &resolverService{buyerRepo: buyerRepo, productRepo: productRepo, cache: cache}
}

// ResolveReferences extracts the distinct buyer NTNs and product names from
// the batch and issues at most one lookup query per reference type, serving
// cached records first. Read-only; unknown keys are simply absent from the
// returned maps.
func (s *resolverService) ResolveReferences(ctx context.Context, tenantID uuid.UUID, rows []ingest.RawRow) (*References, error) {
	refs := &References{
		Buyers:   make(map[string]domain.Buyer),
		Products: make(map[string]domain.Product),
	}

	var missingNTNs []string
	seenNTN := make(map[string]bool)
	for _, row := range rows {
		ntn := strings.TrimSpace(row.BuyerNTN)
		if ntn == "" || seenNTN[ntn] {
			continue
		}
		seenNTN[ntn] = true
		if s.cache != nil {
			if buyer, ok := s.cache.GetBuyer(tenantID, ntn); ok {
				refs.Buyers[ntn] = buyer
				continue
			}
		}
		missingNTNs = append(missingNTNs, ntn)
	}

	var missingNames []string
	seenName := make(map[string]bool)
	for _, row := range rows {
		name := strings.TrimSpace(row.ProductName)
		lowered := strings.ToLower(name)
		if name == "" || seenName[lowered] {
			continue
		}
		seenName[lowered] = true
		if s.cache != nil {
			if product, ok := s.cache.GetProduct(tenantID, lowered); ok {
				addProduct(refs, product, lowered)
				continue
			}
		}
		missingNames = append(missingNames, name)
	}

	if len(missingNTNs) > 0 {
		buyers, err := s.buyerRepo.ListByNTNs(ctx, tenantID, missingNTNs)
		if err != nil {
			return nil, fmt.Errorf("resolving buyers: %w", err)
		}
		for _, buyer := range buyers {
			refs.Buyers[buyer.NTN] = buyer
			if s.cache != nil {
				s.cache.SetBuyer(tenantID, buyer)
			}
		}
	}

	if len(missingNames) > 0 {
		products, err := s.productRepo.ListByNames(ctx, tenantID, missingNames)
		if err != nil {
			return nil, fmt.Errorf("resolving products: %w", err)
		}
		for _, product := range products {
			lowered := strings.ToLower(product.Name)
			addProduct(refs, product, lowered)
			if s.cache != nil {
				s.cache.SetProduct(tenantID, lowered, product)
			}
		}
	}

	return refs, nil
}

func addProduct(refs *References, product domain.Product, lowered string) {
	refs.Products[product.Name] = product
	refs.Products[lowered] = product
}
