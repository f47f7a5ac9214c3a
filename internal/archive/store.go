// Package archive persists weather snapshots for historical lookups. Payloads
// are stored as zstd-compressed JSON so the snapshot schema can evolve
// without migrations while keeping row sizes small.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"skycast/internal/db"
	"skycast/internal/types"
)

// coordToleranceDeg bounds how far an archived snapshot may be from the
// requested coordinate and still count as the same place. 0.05 degrees is
// roughly 5 km at the equator.
const coordToleranceDeg = 0.05

// Store implements types.SnapshotArchive on PostgreSQL.
type Store struct {
	db      db.DBTX
	encoder *zstd.Encoder
	logger  *slog.Logger

	decoderPool sync.Pool
}

// NewStore builds a Store. The compression level maps onto zstd encoder
// levels 1 (fastest) to 4 (best).
func NewStore(dbtx db.DBTX, compressionLevel int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevel(compressionLevel)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	return &Store{
		db:      dbtx,
		encoder: enc,
		logger:  logger,
		decoderPool: sync.Pool{
			New: func() any {
				d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				if err != nil {
					// This should never fail with nil input and default options.
					panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
				}
				return d
			},
		},
	}, nil
}

// Save archives one snapshot keyed by coordinate and UTC observation day.
func (s *Store) Save(ctx context.Context, snapshot *types.WeatherSnapshot) error {
	if snapshot == nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "cannot archive nil snapshot", nil)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode snapshot", err)
	}
	compressed := s.encoder.EncodeAll(payload, nil)

	observed := snapshot.ObservedAt.UTC()
	_, err = s.db.Exec(ctx,
		`INSERT INTO weather_snapshots (lat, lon, observed_at, observed_day, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		snapshot.Location.Lat,
		snapshot.Location.Lon,
		observed,
		observed.Truncate(24*time.Hour),
		compressed,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to archive snapshot", err)
	}

	s.logger.Debug("snapshot archived",
		slog.Float64("lat", snapshot.Location.Lat),
		slog.Float64("lon", snapshot.Location.Lon),
		slog.Time("observed_at", observed),
		slog.Int("compressed_bytes", len(compressed)),
	)
	return nil
}

// GetByDay returns the snapshots observed on the given UTC day near the
// requested coordinate, oldest first. An empty day yields ErrCodeNotFoundSnapshot.
func (s *Store) GetByDay(ctx context.Context, lat, lon float64, day time.Time) ([]*types.WeatherSnapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT payload
		 FROM weather_snapshots
		 WHERE observed_day = $1
		   AND lat BETWEEN $2 AND $3
		   AND lon BETWEEN $4 AND $5
		 ORDER BY observed_at`,
		day.UTC().Truncate(24*time.Hour),
		lat-coordToleranceDeg,
		lat+coordToleranceDeg,
		lon-coordToleranceDeg,
		lon+coordToleranceDeg,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query archive", err)
	}
	defer rows.Close()

	var snapshots []*types.WeatherSnapshot
	for rows.Next() {
		var compressed []byte
		if err := rows.Scan(&compressed); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan archive row", err)
		}

		snap, err := s.decode(compressed)
		if err != nil {
			// A corrupt row degrades the result instead of failing the day.
			s.logger.Warn("skipping undecodable archive row", slog.String("error", err.Error()))
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read archive rows", err)
	}

	if len(snapshots) == 0 {
		return nil, types.NewAppError(types.ErrCodeNotFoundSnapshot, "no archived snapshots for that day", nil)
	}
	return snapshots, nil
}

// Purge removes archived snapshots observed before the cutoff and reports
// how many rows were removed. Run periodically to enforce retention.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM weather_snapshots WHERE observed_at < $1`,
		before.UTC(),
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to purge archive", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) decode(compressed []byte) (*types.WeatherSnapshot, error) {
	decoder := s.decoderPool.Get().(*zstd.Decoder)
	defer s.decoderPool.Put(decoder)

	payload, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var snap types.WeatherSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
