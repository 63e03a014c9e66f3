package preview

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/service/s3"
)

func TestCalculateNewDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"landscape", 2480, 1754, 1024, 724},
		{"portrait", 1754, 2480, 724, 1024},
		{"square", 2048, 2048, 1024, 1024},
		{"small stays", 600, 800, 600, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := calculateNewDimensions(tt.width, tt.height, maxImageSize)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("7f1c2a9e-4b1d-4c1a-9d55-0c0f3b6a2d11")
	f := &domain.FdvFile{ID: id, Version: 3}

	assert.Equal(t, "previews/7f1c2a9e-4b1d-4c1a-9d55-0c0f3b6a2d11_v3.jpg", Key(f))
}

func TestGetOrGenerate_RendersOnceThenServesCached(t *testing.T) {
	ctx := context.Background()
	storage := s3.NewMemoryStorage()
	file := &domain.FdvFile{ID: uuid.New(), StoragePath: "b/1.pdf", Version: 1}
	require.NoError(t, storage.UploadBytes(ctx, file.StoragePath, []byte("%PDF-1.7"), "application/pdf"))

	calls := 0
	svc := NewServiceWithRasterizer(storage, func(_ context.Context, pdf []byte) ([]byte, error) {
		calls++
		assert.Equal(t, "%PDF-1.7", string(pdf))
		return []byte("jpeg"), nil
	})

	first, err := svc.GetOrGenerate(ctx, file)
	require.NoError(t, err)
	second, err := svc.GetOrGenerate(ctx, file)
	require.NoError(t, err)

	assert.Equal(t, []byte("jpeg"), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, storage.Has(Key(file)))

	require.NoError(t, svc.Remove(ctx, file))
	assert.False(t, storage.Has(Key(file)))
}

func TestGetOrGenerate_RenderFailure(t *testing.T) {
	ctx := context.Background()
	storage := s3.NewMemoryStorage()
	file := &domain.FdvFile{ID: uuid.New(), StoragePath: "b/2.pdf", Version: 1}
	require.NoError(t, storage.UploadBytes(ctx, file.StoragePath, []byte("%PDF-1.7"), "application/pdf"))

	svc := NewServiceWithRasterizer(storage, func(context.Context, []byte) ([]byte, error) {
		return nil, errors.New("pdftoppm: not found")
	})

	_, err := svc.GetOrGenerate(ctx, file)

	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))
	assert.False(t, storage.Has(Key(file)))
}

func TestGetOrGenerate_MissingSource(t *testing.T) {
	svc := NewServiceWithRasterizer(s3.NewMemoryStorage(), func(context.Context, []byte) ([]byte, error) {
		return []byte("x"), nil
	})

	_, err := svc.GetOrGenerate(context.Background(), &domain.FdvFile{ID: uuid.New(), StoragePath: "gone.pdf"})

	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}
