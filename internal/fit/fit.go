package fit

import (
	"math"

	"github.com/designcraft/designcraft-backend/internal/catalog"
	"github.com/designcraft/designcraft-backend/pkg/enums"
)

const (
	// MinDPI is the lowest effective resolution accepted for print.
	MinDPI = 150.0
	// MaxRatioDifference is how far the image aspect ratio may drift from the print area.
	MaxRatioDifference = 0.2

	printDPI = 300.0
)

// Report carries the figures behind a verdict.
type Report struct {
	Verdict         enums.FitVerdict  `json:"verdict"`
	ProductType     enums.ProductType `json:"productType"`
	ImageWidth      int               `json:"imageWidth"`
	ImageHeight     int               `json:"imageHeight"`
	TargetWidth     int               `json:"targetWidth,omitempty"`
	TargetHeight    int               `json:"targetHeight,omitempty"`
	ImageRatio      float64           `json:"imageRatio,omitempty"`
	ProductRatio    float64           `json:"productRatio,omitempty"`
	RatioDifference float64           `json:"ratioDifference,omitempty"`
	EffectiveDPI    float64           `json:"effectiveDpi,omitempty"`
}

// CheckImageFit grades an image of the given pixel size against a product's print area.
func CheckImageFit(width, height int, productType enums.ProductType) enums.FitVerdict {
	return Evaluate(width, height, productType).Verdict
}

// Evaluate is CheckImageFit with the intermediate numbers attached.
func Evaluate(width, height int, productType enums.ProductType) Report {
	report := Report{
		Verdict:     enums.FitVerdictError,
		ProductType: productType,
		ImageWidth:  width,
		ImageHeight: height,
	}

	dims, ok := catalog.LookupDimensions(productType)
	if !ok || width <= 0 || height <= 0 {
		return report
	}
	report.TargetWidth = dims.Width
	report.TargetHeight = dims.Height

	w, h := float64(width), float64(height)
	tw, th := float64(dims.Width), float64(dims.Height)

	report.ImageRatio = w / h
	report.ProductRatio = tw / th
	report.RatioDifference = math.Abs(report.ImageRatio - report.ProductRatio)
	report.EffectiveDPI = math.Min(w/(tw/printDPI), h/(th/printDPI))

	switch {
	case report.EffectiveDPI < MinDPI:
		report.Verdict = enums.FitVerdictError
	case report.RatioDifference > MaxRatioDifference:
		report.Verdict = enums.FitVerdictWarning
	default:
		report.Verdict = enums.FitVerdictGood
	}
	return report
}
