package receipt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func sampleRequest() appfee.ReceiptRequest {
	orgID := uuid.MustParse("0d1f6a2e-0000-4000-8000-000000000001")
	feeID := uuid.MustParse("0d1f6a2e-0000-4000-8000-0000000000f1")
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return appfee.ReceiptRequest{
		OrgID:       orgID,
		StudentID:   uuid.New(),
		StudentName: "ada lovelace",
		FeeID:       feeID,
		Reference:   "FEE-" + feeID.String(),
		Description: "Tuition - March 2024",
		Amount:      decimal.RequireFromString("12500.5"),
		DueDate:     &due,
		PaidDate:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerator_Generate(t *testing.T) {
	store := storage.NewStubObjectStorage()
	g, err := NewGenerator(store, Options{
		School:   "Hillside Primary",
		Currency: "ZAR",
		LinkTTL:  time.Hour,
		Now:      func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	req := sampleRequest()
	artifact, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	wantKey := "receipts/" + req.OrgID.String() + "/2024/03/" + req.Reference + ".html"
	assert.Equal(t, wantKey, artifact.StoragePath)
	assert.Contains(t, artifact.URL, "/download/"+wantKey)

	obj, ok := store.Object(wantKey)
	require.True(t, ok)
	assert.Equal(t, contentType, obj.ContentType)
	html := string(obj.Data)
	assert.Contains(t, html, "Hillside Primary")
	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "ZAR 12,500.50")
	assert.Contains(t, html, "1 March 2024")
	assert.Contains(t, html, "10 March 2024")
	assert.Contains(t, html, req.Reference)
}

func TestGenerator_RegenerateOverwritesSameKey(t *testing.T) {
	store := storage.NewStubObjectStorage()
	g, err := NewGenerator(store, Options{})
	require.NoError(t, err)

	req := sampleRequest()
	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	req.Amount = decimal.NewFromInt(100)
	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.StoragePath, second.StoragePath)
	obj, _ := store.Object(second.StoragePath)
	assert.Contains(t, string(obj.Data), "100.00")
}

func TestGenerator_NoDueDate(t *testing.T) {
	store := storage.NewStubObjectStorage()
	g, err := NewGenerator(store, Options{Prefix: "/docs/receipts/"})
	require.NoError(t, err)

	req := sampleRequest()
	req.DueDate = nil
	artifact, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Regexp(t, `^docs/receipts/`, artifact.StoragePath)
	obj, _ := store.Object(artifact.StoragePath)
	assert.Contains(t, string(obj.Data), "&ndash;")
}

func TestGenerator_Errors(t *testing.T) {
	_, err := NewGenerator(nil, Options{})
	require.Error(t, err)

	t.Run("missing reference", func(t *testing.T) {
		g, err := NewGenerator(new(MockObjectStore), Options{})
		require.NoError(t, err)
		req := sampleRequest()
		req.Reference = " "

		_, err = g.Generate(context.Background(), req)
		assert.ErrorContains(t, err, "payment reference")
	})

	t.Run("upload failure", func(t *testing.T) {
		store := new(MockObjectStore)
		boom := errors.New("bucket unreachable")
		store.On("Upload", mock.Anything, mock.Anything, mock.Anything, contentType).Return(boom)
		g, err := NewGenerator(store, Options{})
		require.NoError(t, err)

		_, err = g.Generate(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, boom)
		store.AssertNotCalled(t, "GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("presign failure", func(t *testing.T) {
		store := new(MockObjectStore)
		boom := errors.New("signer misconfigured")
		store.On("Upload", mock.Anything, mock.Anything, mock.Anything, contentType).Return(nil)
		store.On("GenerateDownloadURL", mock.Anything, mock.Anything, time.Duration(0)).Return("", time.Time{}, boom)
		g, err := NewGenerator(store, Options{})
		require.NoError(t, err)

		_, err = g.Generate(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, boom)
	})
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "ZAR 0.00", formatMoney("ZAR", decimal.Zero))
	assert.Equal(t, "ZAR 999.90", formatMoney("ZAR", decimal.RequireFromString("999.9")))
	assert.Equal(t, "1,000,000.00", formatMoney("", decimal.NewFromInt(1000000)))
	assert.Equal(t, "ZAR -1,250.00", formatMoney("ZAR", decimal.NewFromInt(-1250)))
}
