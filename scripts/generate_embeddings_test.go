package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	vector []float32
	err    error
}

func (f *fixedEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

func TestGeneratePOIEmbeddings_WritesVectors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT(.|\n)+WHERE embedding IS NULL").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "category", "description", "address", "tags"}).
			AddRow(id, "Maxwell Food Centre", "food", "Hawker centre", "1 Kadayanallur St", []string{"hawker"}))
	mock.ExpectExec("UPDATE points_of_interest").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	embedder := &fixedEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	err = generatePOIEmbeddings(context.Background(), mock, embedder, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeneratePOIEmbeddings_AbortsWhenNoProgress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Every embed fails, so the same full batch keeps coming back; the run
	// must abort after the stall cap instead of looping forever.
	for pass := 0; pass < maxStalledPasses; pass++ {
		rows := pgxmock.NewRows([]string{"id", "name", "category", "description", "address", "tags"})
		for i := 0; i < batchSize; i++ {
			rows.AddRow(uuid.New(), fmt.Sprintf("POI %d", i), "food", "", "", []string{})
		}
		mock.ExpectQuery("SELECT(.|\n)+WHERE embedding IS NULL").WithArgs(pgxmock.AnyArg()).WillReturnRows(rows)
	}

	embedder := &fixedEmbedder{err: errors.New("quota exceeded")}
	err = generatePOIEmbeddings(context.Background(), mock, embedder, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embeddings written")
	assert.NoError(t, mock.ExpectationsWereMet())
}
