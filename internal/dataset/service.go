package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/segmetric/segmetric/internal/catalog"
	segerrors "github.com/segmetric/segmetric/internal/errors"
	"github.com/segmetric/segmetric/internal/storage"
	"github.com/segmetric/segmetric/pkg/types"
)

// Service manages dataset snapshots: generation, persistence to object
// storage, and retrieval. Loaded tables are cached by dataset ID so
// repeated pivots over the same snapshot skip the decode.
type Service struct {
	store   storage.ObjectStore
	catalog catalog.Catalog

	cache *tableCache
}

// NewService creates a dataset service over the given store and catalog.
func NewService(store storage.ObjectStore, cat catalog.Catalog) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		cache:   newTableCache(4),
	}
}

// GenerateAndSave generates a synthetic dataset and persists it as a
// new snapshot. Returns the catalog record for the stored dataset.
func (s *Service) GenerateAndSave(ctx context.Context, name string, numUsers int, seed int64) (*catalog.DatasetRecord, error) {
	if numUsers <= 0 {
		return nil, segerrors.NewValidationError(segerrors.CodeInvalidRule, "num_users must be positive")
	}

	gen := NewGenerator(seed, time.Now().UTC())
	tbl := gen.Generate(numUsers)

	return s.Save(ctx, name, tbl, seed)
}

// Save persists a table as a new dataset snapshot.
func (s *Service) Save(ctx context.Context, name string, tbl *types.Table, seed int64) (*catalog.DatasetRecord, error) {
	blob, err := EncodeTable(tbl)
	if err != nil {
		return nil, segerrors.Wrap(segerrors.ErrCategoryDataset, segerrors.CodeDatasetCorrupt, "failed to encode dataset", err)
	}

	id := uuid.New().String()
	objectPath := fmt.Sprintf("datasets/%s.seg", id)

	if err := s.store.Put(ctx, objectPath, blob); err != nil {
		return nil, segerrors.Wrap(segerrors.ErrCategoryStorage, segerrors.CodeUploadFailed, "failed to upload dataset snapshot", err)
	}

	rec := &catalog.DatasetRecord{
		DatasetID:   id,
		Name:        name,
		ObjectPath:  objectPath,
		RowCount:    int64(tbl.NumRows()),
		Fingerprint: Fingerprint(blob),
		Seed:        seed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.catalog.RegisterDataset(ctx, rec); err != nil {
		// Best effort cleanup; the orphaned blob can also be swept later.
		if delErr := s.store.Delete(ctx, objectPath); delErr != nil {
			log.Printf("dataset: failed to clean up orphaned snapshot %s: %v", objectPath, delErr)
		}
		return nil, segerrors.Wrap(segerrors.ErrCategoryDataset, segerrors.CodeUnexpected, "failed to register dataset", err)
	}

	s.cache.put(id, tbl)
	return rec, nil
}

// Load fetches a dataset snapshot by ID and decodes it.
func (s *Service) Load(ctx context.Context, datasetID string) (*types.Table, error) {
	if tbl, ok := s.cache.get(datasetID); ok {
		return tbl, nil
	}

	rec, err := s.catalog.GetDataset(ctx, datasetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, segerrors.New(segerrors.ErrCategoryDataset, segerrors.CodeDatasetNotFound,
				fmt.Sprintf("dataset not found: %s", datasetID))
		}
		return nil, segerrors.Wrap(segerrors.ErrCategoryDataset, segerrors.CodeUnexpected, "failed to look up dataset", err)
	}

	blob, err := s.store.Get(ctx, rec.ObjectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, segerrors.New(segerrors.ErrCategoryDataset, segerrors.CodeDatasetCorrupt,
				fmt.Sprintf("snapshot missing for dataset %s", datasetID))
		}
		return nil, segerrors.Wrap(segerrors.ErrCategoryStorage, segerrors.CodeDownloadFailed, "failed to download dataset snapshot", err)
	}

	if fp := Fingerprint(blob); fp != rec.Fingerprint {
		return nil, segerrors.New(segerrors.ErrCategoryDataset, segerrors.CodeDatasetCorrupt,
			fmt.Sprintf("fingerprint mismatch for dataset %s", datasetID))
	}

	tbl, err := DecodeTable(blob)
	if err != nil {
		return nil, segerrors.Wrap(segerrors.ErrCategoryDataset, segerrors.CodeDatasetCorrupt, "failed to decode dataset snapshot", err)
	}

	s.cache.put(datasetID, tbl)
	return tbl, nil
}

// List returns all live dataset records, newest first.
func (s *Service) List(ctx context.Context) ([]*catalog.DatasetRecord, error) {
	return s.catalog.ListDatasets(ctx)
}

// Get returns the catalog record for a dataset.
func (s *Service) Get(ctx context.Context, datasetID string) (*catalog.DatasetRecord, error) {
	rec, err := s.catalog.GetDataset(ctx, datasetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, segerrors.New(segerrors.ErrCategoryDataset, segerrors.CodeDatasetNotFound,
				fmt.Sprintf("dataset not found: %s", datasetID))
		}
		return nil, err
	}
	return rec, nil
}

// Delete removes a dataset record and its snapshot blob.
func (s *Service) Delete(ctx context.Context, datasetID string) error {
	rec, err := s.catalog.GetDataset(ctx, datasetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return segerrors.New(segerrors.ErrCategoryDataset, segerrors.CodeDatasetNotFound,
				fmt.Sprintf("dataset not found: %s", datasetID))
		}
		return err
	}

	if err := s.catalog.DeleteDataset(ctx, datasetID); err != nil {
		return err
	}
	s.cache.evict(datasetID)

	if err := s.store.Delete(ctx, rec.ObjectPath); err != nil {
		// The record is already gone; log and move on.
		log.Printf("dataset: failed to delete snapshot %s: %v", rec.ObjectPath, err)
	}
	return nil
}
