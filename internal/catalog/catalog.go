package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
)

// ProductVariant is one purchasable size/colour combination.
type ProductVariant struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Size  string          `json:"size,omitempty"`
	Color string          `json:"color,omitempty"`
}

type Product struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      enums.ProductType `json:"type"`
	BasePrice decimal.Decimal   `json:"basePrice"`
	ImageURL  string            `json:"imageUrl"`
	Variants  []ProductVariant  `json:"variants"`
}

// Dimensions is the target print area in pixels at 300 DPI.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Mockup pairs a product photo with the design preview.
type Mockup struct {
	MockupURL  string `json:"mockup_url"`
	PreviewURL string `json:"preview_url"`
}

var productOrder = []enums.ProductType{
	enums.ProductTypeTShirt,
	enums.ProductTypeMug,
	enums.ProductTypePoster,
	enums.ProductTypeHoodie,
}

var dimensions = map[enums.ProductType]Dimensions{
	enums.ProductTypeTShirt: {Width: 1800, Height: 2400},
	enums.ProductTypeMug:    {Width: 2400, Height: 1000},
	enums.ProductTypePoster: {Width: 2400, Height: 3600},
	enums.ProductTypeHoodie: {Width: 1800, Height: 2400},
}

func price(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func apparelVariants(firstID int, unit string, colors ...string) []ProductVariant {
	sizes := []string{"S", "M", "L", "XL"}
	variants := make([]ProductVariant, 0, len(sizes)*len(colors))
	id := firstID
	for _, color := range colors {
		for _, size := range sizes {
			variants = append(variants, ProductVariant{
				ID:    id,
				Name:  size + " / " + color,
				Price: price(unit),
				Size:  size,
				Color: color,
			})
			id++
		}
	}
	return variants
}

var products = map[enums.ProductType]Product{
	enums.ProductTypeTShirt: {
		ID:        "tshirt-001",
		Name:      "Premium T-Shirt",
		Type:      enums.ProductTypeTShirt,
		BasePrice: price("24.99"),
		ImageURL:  "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500&q=80",
		Variants:  apparelVariants(101, "24.99", "Black", "White"),
	},
	enums.ProductTypeMug: {
		ID:        "mug-001",
		Name:      "Ceramic Mug",
		Type:      enums.ProductTypeMug,
		BasePrice: price("14.99"),
		ImageURL:  "https://images.unsplash.com/photo-1514228742587-6b1558fcca3d?w=500&q=80",
		Variants: []ProductVariant{
			{ID: 201, Name: "11oz / White", Price: price("14.99"), Size: "11oz", Color: "White"},
			{ID: 202, Name: "15oz / White", Price: price("16.99"), Size: "15oz", Color: "White"},
			{ID: 203, Name: "11oz / Black", Price: price("15.99"), Size: "11oz", Color: "Black"},
			{ID: 204, Name: "15oz / Black", Price: price("17.99"), Size: "15oz", Color: "Black"},
		},
	},
	enums.ProductTypePoster: {
		ID:        "poster-001",
		Name:      "Premium Poster",
		Type:      enums.ProductTypePoster,
		BasePrice: price("19.99"),
		ImageURL:  "https://images.unsplash.com/photo-1601599963565-b7f49deb352a?w=500&q=80",
		Variants: []ProductVariant{
			{ID: 301, Name: "12×18 inches", Price: price("19.99"), Size: "12×18"},
			{ID: 302, Name: "18×24 inches", Price: price("24.99"), Size: "18×24"},
			{ID: 303, Name: "24×36 inches", Price: price("29.99"), Size: "24×36"},
		},
	},
	enums.ProductTypeHoodie: {
		ID:        "hoodie-001",
		Name:      "Premium Hoodie",
		Type:      enums.ProductTypeHoodie,
		BasePrice: price("39.99"),
		ImageURL:  "https://images.unsplash.com/photo-1556821840-3a63f95609a7?w=500&q=80",
		Variants:  apparelVariants(401, "39.99", "Black", "Gray"),
	},
}

// Products lists the catalog in display order.
func Products() []Product {
	out := make([]Product, 0, len(productOrder))
	for _, t := range productOrder {
		out = append(out, clone(products[t]))
	}
	return out
}

// ProductByType returns the catalog entry for a product type.
func ProductByType(productType enums.ProductType) (Product, error) {
	p, ok := products[productType]
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product type not found").
			WithDetails(map[string]any{"productType": productType.String()})
	}
	return clone(p), nil
}

// LookupDimensions returns the print area for a product type.
func LookupDimensions(productType enums.ProductType) (Dimensions, bool) {
	d, ok := dimensions[productType]
	return d, ok
}

// TypeFromProductID derives the product type from ids shaped like "tshirt-001".
func TypeFromProductID(productID string) enums.ProductType {
	prefix, _, _ := strings.Cut(strings.TrimSpace(productID), "-")
	return enums.ProductType(strings.ToLower(prefix))
}

// ProductByID returns the catalog entry whose id is exactly productID.
func ProductByID(productID string) (Product, error) {
	p, ok := products[TypeFromProductID(productID)]
	if !ok || p.ID != productID {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"productId": productID})
	}
	return clone(p), nil
}

// Variants returns the variants of the product identified by productID.
func Variants(productID string) ([]ProductVariant, error) {
	p, err := ProductByID(productID)
	if err != nil {
		return nil, err
	}
	return p.Variants, nil
}

// Variant finds a single variant of a product.
func Variant(productID string, variantID int) (ProductVariant, error) {
	variants, err := Variants(productID)
	if err != nil {
		return ProductVariant{}, err
	}
	for _, v := range variants {
		if v.ID == variantID {
			return v, nil
		}
	}
	return ProductVariant{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
		WithDetails(map[string]any{"productId": productID, "variantId": variantID})
}

// StaticMockup builds an offline mockup from the product photo and the design image.
func StaticMockup(productID, imageURL string) (Mockup, error) {
	p, err := ProductByID(productID)
	if err != nil {
		return Mockup{}, err
	}
	return Mockup{MockupURL: p.ImageURL, PreviewURL: imageURL}, nil
}

func clone(p Product) Product {
	p.Variants = append([]ProductVariant(nil), p.Variants...)
	return p
}
