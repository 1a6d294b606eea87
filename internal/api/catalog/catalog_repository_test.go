package catalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryImpl_ListPOIs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id1 := uuid.New()
	id2 := uuid.New()
	embedding := pgvector.NewVector([]float32{0.1, 0.2, 0.3})

	rows := pgxmock.NewRows([]string{
		"id", "name", "category", "description", "latitude", "longitude", "address", "tags", "embedding",
	}).
		AddRow(id1, "Maxwell Food Centre", "food", "Hawker centre", 1.2802, 103.8443, "1 Kadayanallur St", []string{"hawker", "local"}, &embedding).
		AddRow(id2, "Fort Canning Park", "attraction", "Hilltop park", 1.2926, 103.8448, "", []string{"nature", "park"}, nil)

	mock.ExpectQuery("SELECT(.|\n)+FROM points_of_interest").WillReturnRows(rows)

	repo := NewRepository(mock, slog.New(slog.DiscardHandler))
	pois, err := repo.ListPOIs(context.Background())
	require.NoError(t, err)
	require.Len(t, pois, 2)

	assert.Equal(t, id1, pois[0].ID)
	assert.Equal(t, "Maxwell Food Centre", pois[0].Name)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, pois[0].Embedding)
	assert.Equal(t, []string{"hawker", "local"}, pois[0].Tags)

	assert.Equal(t, "Fort Canning Park", pois[1].Name)
	assert.Nil(t, pois[1].Embedding)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryImpl_ListPOIs_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT(.|\n)+FROM points_of_interest").
		WillReturnError(errors.New("connection refused"))

	repo := NewRepository(mock, slog.New(slog.DiscardHandler))
	_, err = repo.ListPOIs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list POIs")
}

func TestRepositoryImpl_CountPOIs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM points_of_interest`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(215))

	repo := NewRepository(mock, slog.New(slog.DiscardHandler))
	count, err := repo.CountPOIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 215, count)
}
