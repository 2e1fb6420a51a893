package fit

import (
	"context"
	"strings"
	"time"

	"github.com/designcraft/designcraft-backend/internal/catalog"
	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

// Fixer adjusts a design so it suits a product's print area.
type Fixer interface {
	Fix(ctx context.Context, imageURL string, productType enums.ProductType) (string, error)
}

// DelayFixer stands in for the external image adjustment service: it waits for
// the configured delay and hands back the original URL.
type DelayFixer struct {
	delay time.Duration
	logg  *logger.Logger
}

func NewDelayFixer(delay time.Duration, logg *logger.Logger) *DelayFixer {
	if delay < 0 {
		delay = 0
	}
	return &DelayFixer{delay: delay, logg: logg}
}

func (f *DelayFixer) Fix(ctx context.Context, imageURL string, productType enums.ProductType) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}
	if _, ok := catalog.LookupDimensions(productType); !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown product type").
			WithDetails(map[string]any{"productType": productType.String()})
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "image fix cancelled")
	case <-timer.C:
	}

	if f.logg != nil {
		f.logg.Info(f.logg.WithField(ctx, "product_type", productType.String()), "design.fix.completed")
	}
	return imageURL, nil
}
