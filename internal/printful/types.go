package printful

import "github.com/shopspring/decimal"

// Category is a node in the fulfillment catalog tree.
type Category struct {
	ID       int    `json:"id"`
	ParentID int    `json:"parent_id"`
	ImageURL string `json:"image_url"`
	Title    string `json:"title"`
}

type Product struct {
	ID             int    `json:"id"`
	MainCategory   int    `json:"main_category_id"`
	Type           string `json:"type"`
	TypeName       string `json:"type_name"`
	Title          string `json:"title"`
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	Image          string `json:"image"`
	VariantCount   int    `json:"variant_count"`
	Currency       string `json:"currency"`
	IsDiscontinued bool   `json:"is_discontinued"`
	Description    string `json:"description"`
}

type Variant struct {
	ID        int             `json:"id"`
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	ColorCode string          `json:"color_code"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"in_stock"`
}

// ProductDetails is the payload of GET /products/{id} and GET /products/variant/{id}.
type ProductDetails struct {
	Product  Product   `json:"product"`
	Variant  *Variant  `json:"variant,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
}

type PrintFile struct {
	ID       int    `json:"printfile_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	DPI      int    `json:"dpi"`
	FillMode string `json:"fill_mode"`
}

type VariantPrintFiles struct {
	VariantID  int            `json:"variant_id"`
	Placements map[string]int `json:"placements"`
}

// PrintFiles describes the print areas for a product's variants.
type PrintFiles struct {
	ProductID           int                 `json:"product_id"`
	AvailablePlacements map[string]string   `json:"available_placements"`
	PrintFiles          []PrintFile         `json:"printfiles"`
	VariantPrintFiles   []VariantPrintFiles `json:"variant_printfiles"`
}

type MockupFile struct {
	Placement string `json:"placement" validate:"required"`
	ImageURL  string `json:"image_url" validate:"required,url"`
}

type MockupTaskRequest struct {
	VariantIDs []int        `json:"variant_ids" validate:"required,min=1"`
	Format     string       `json:"format,omitempty" validate:"omitempty,oneof=jpg png"`
	Files      []MockupFile `json:"files" validate:"required,min=1,dive"`
}

// Mockup task statuses reported by the generator.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

type GeneratedMockup struct {
	Placement  string `json:"placement"`
	VariantIDs []int  `json:"variant_ids"`
	MockupURL  string `json:"mockup_url"`
}

type MockupTask struct {
	TaskKey string            `json:"task_key"`
	Status  string            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Mockups []GeneratedMockup `json:"mockups,omitempty"`
}

// File is an asset in the fulfillment file library.
type File struct {
	ID           int    `json:"id"`
	Type         string `json:"type,omitempty"`
	URL          string `json:"url,omitempty"`
	Filename     string `json:"filename,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	Status       string `json:"status,omitempty"`
	PreviewURL   string `json:"preview_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type Recipient struct {
	Name        string `json:"name" validate:"required"`
	Address1    string `json:"address1" validate:"required"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city" validate:"required"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
	Zip         string `json:"zip" validate:"required"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty"`
}

type OrderFile struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url" validate:"required"`
}

type OrderItem struct {
	VariantID   int         `json:"variant_id" validate:"required,gt=0"`
	Quantity    int         `json:"quantity" validate:"required,gt=0"`
	ExternalID  string      `json:"external_id,omitempty"`
	Name        string      `json:"name,omitempty"`
	RetailPrice string      `json:"retail_price,omitempty"`
	Files       []OrderFile `json:"files,omitempty" validate:"dive"`
}

type OrderRequest struct {
	ExternalID string      `json:"external_id,omitempty"`
	Recipient  *Recipient  `json:"recipient" validate:"required"`
	Items      []OrderItem `json:"items" validate:"required,min=1,dive"`
}

type Costs struct {
	Currency string          `json:"currency"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type CostEstimate struct {
	Costs       Costs `json:"costs"`
	RetailCosts Costs `json:"retail_costs"`
}

type Order struct {
	ID         int64       `json:"id"`
	ExternalID string      `json:"external_id"`
	Status     string      `json:"status"`
	Shipping   string      `json:"shipping"`
	Created    int64       `json:"created"`
	Updated    int64       `json:"updated"`
	Recipient  Recipient   `json:"recipient"`
	Items      []OrderItem `json:"items"`
	Costs      Costs       `json:"costs"`
}

type ShippingItem struct {
	VariantID int `json:"variant_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

type ShippingRequest struct {
	Recipient *Recipient     `json:"recipient" validate:"required"`
	Items     []ShippingItem `json:"items" validate:"required,min=1,dive"`
	Currency  string         `json:"currency,omitempty"`
}

type ShippingRate struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Rate            decimal.Decimal `json:"rate"`
	Currency        string          `json:"currency"`
	MinDeliveryDays int             `json:"minDeliveryDays"`
	MaxDeliveryDays int             `json:"maxDeliveryDays"`
}

type Store struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}
