package printful

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
)

type stubMockupClient struct {
	calls   int
	lastID  int
	lastReq MockupTaskRequest
}

func (s *stubMockupClient) CreateMockupTask(_ context.Context, productID int, task MockupTaskRequest) (*MockupTask, error) {
	s.calls++
	s.lastID = productID
	s.lastReq = task
	return &MockupTask{TaskKey: "gt-77", Status: TaskPending}, nil
}

type boolKeys bool

func (b boolKeys) HasKey(context.Context) bool { return bool(b) }

func TestMockupsFallBackToStaticWithoutKey(t *testing.T) {
	client := &stubMockupClient{}
	m, err := NewMockups(client, boolKeys(false))
	require.NoError(t, err)

	res, err := m.Create(context.Background(), MockupRequest{
		ProductID:         "mug-001",
		PrintfulProductID: 19,
		VariantIDs:        []int{1320},
		ImageURL:          "https://cdn.example.com/d.png",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceStatic, res.Source)
	assert.Equal(t, TaskCompleted, res.Status)
	require.Len(t, res.Mockups, 1)
	assert.Equal(t, "https://cdn.example.com/d.png", res.Mockups[0].PreviewURL)
	assert.Zero(t, client.calls)
}

func TestMockupsQueueTaskWithKey(t *testing.T) {
	client := &stubMockupClient{}
	m, err := NewMockups(client, boolKeys(true))
	require.NoError(t, err)

	res, err := m.Create(context.Background(), MockupRequest{
		ProductID:         "tshirt-001",
		PrintfulProductID: 71,
		VariantIDs:        []int{4012},
		ImageURL:          "https://cdn.example.com/d.png",
	})
	require.NoError(t, err)
	assert.Equal(t, SourcePrintful, res.Source)
	assert.Equal(t, "gt-77", res.TaskKey)
	assert.Equal(t, 71, client.lastID)
	assert.Equal(t, "front", client.lastReq.Files[0].Placement)
}

func TestMockupsRejectUnknownProductOffline(t *testing.T) {
	m, err := NewMockups(&stubMockupClient{}, boolKeys(false))
	require.NoError(t, err)
	_, err = m.Create(context.Background(), MockupRequest{ProductID: "sticker-001", ImageURL: "https://x/y.png"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = m.Create(context.Background(), MockupRequest{ProductID: "mug-001"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
