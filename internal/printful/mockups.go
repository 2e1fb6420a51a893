package printful

import (
	"context"
	"errors"
	"strings"

	"github.com/designcraft/designcraft-backend/internal/catalog"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
)

// Mockup sources.
const (
	SourcePrintful = "printful"
	SourceStatic   = "static"
)

type MockupRequest struct {
	ProductID         string `json:"productId" validate:"required"`
	PrintfulProductID int    `json:"printfulProductId" validate:"omitempty,gt=0"`
	VariantIDs        []int  `json:"variantIds" validate:"omitempty,dive,gt=0"`
	ImageURL          string `json:"imageUrl" validate:"required"`
	Placement         string `json:"placement"`
}

type MockupResult struct {
	Source  string           `json:"source"`
	TaskKey string           `json:"taskKey,omitempty"`
	Status  string           `json:"status"`
	Mockups []catalog.Mockup `json:"mockups"`
}

type mockupClient interface {
	CreateMockupTask(ctx context.Context, productID int, task MockupTaskRequest) (*MockupTask, error)
}

type keyChecker interface {
	HasKey(ctx context.Context) bool
}

// Mockups queues generator tasks when a credential is configured and falls
// back to the static catalog photo otherwise.
type Mockups struct {
	client mockupClient
	keys   keyChecker
}

func NewMockups(client mockupClient, keys keyChecker) (*Mockups, error) {
	if client == nil {
		return nil, errors.New("mockup client required")
	}
	if keys == nil {
		return nil, errors.New("key checker required")
	}
	return &Mockups{client: client, keys: keys}, nil
}

func (m *Mockups) Create(ctx context.Context, req MockupRequest) (*MockupResult, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}
	if req.PrintfulProductID == 0 || len(req.VariantIDs) == 0 || !m.keys.HasKey(ctx) {
		mockup, err := catalog.StaticMockup(req.ProductID, req.ImageURL)
		if err != nil {
			return nil, err
		}
		return &MockupResult{Source: SourceStatic, Status: TaskCompleted, Mockups: []catalog.Mockup{mockup}}, nil
	}

	placement := strings.TrimSpace(req.Placement)
	if placement == "" {
		placement = "front"
	}
	task, err := m.client.CreateMockupTask(ctx, req.PrintfulProductID, MockupTaskRequest{
		VariantIDs: req.VariantIDs,
		Format:     "jpg",
		Files:      []MockupFile{{Placement: placement, ImageURL: req.ImageURL}},
	})
	if err != nil {
		return nil, err
	}
	result := &MockupResult{Source: SourcePrintful, TaskKey: task.TaskKey, Status: task.Status, Mockups: []catalog.Mockup{}}
	for _, generated := range task.Mockups {
		result.Mockups = append(result.Mockups, catalog.Mockup{MockupURL: generated.MockupURL, PreviewURL: req.ImageURL})
	}
	return result, nil
}
