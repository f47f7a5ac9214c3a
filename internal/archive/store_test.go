package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skycast/internal/types"
)

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// payloadRows implements pgx.Rows over a list of compressed payloads.
type payloadRows struct {
	payloads [][]byte
	idx      int
	closed   bool
	errVal   error
}

func (r *payloadRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx <= len(r.payloads)
}

func (r *payloadRows) Scan(dest ...any) error {
	*dest[0].(*[]byte) = r.payloads[r.idx-1]
	return nil
}

func (r *payloadRows) Close()                                       { r.closed = true }
func (r *payloadRows) Err() error                                   { return r.errVal }
func (r *payloadRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *payloadRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *payloadRows) RawValues() [][]byte                          { return nil }
func (r *payloadRows) Values() ([]any, error)                       { return nil, nil }
func (r *payloadRows) Conn() *pgx.Conn                              { return nil }

func testStore(t *testing.T, dbtx *mockDBTX) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewStore(dbtx, 3, logger)
	require.NoError(t, err)
	return store
}

func sampleSnapshot() *types.WeatherSnapshot {
	return &types.WeatherSnapshot{
		Location:   types.Location{Lat: 51.5074, Lon: -0.1278},
		ObservedAt: time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC),
		TempC:      21.5,
		Humidity:   55,
		Condition:  types.ConditionClear,
		Source:     "openweather",
	}
}

func TestStoreSaveAndGetByDayRoundTrip(t *testing.T) {
	dbtx := new(mockDBTX)
	store := testStore(t, dbtx)
	ctx := context.Background()
	snap := sampleSnapshot()

	var compressed []byte
	dbtx.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			execArgs := args.Get(2).([]any)
			compressed = execArgs[4].([]byte)
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, store.Save(ctx, snap))
	require.NotEmpty(t, compressed)

	rows := &payloadRows{payloads: [][]byte{compressed}}
	dbtx.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	day := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	got, err := store.GetByDay(ctx, 51.5074, -0.1278, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, snap.TempC, got[0].TempC)
	assert.Equal(t, snap.Condition, got[0].Condition)
	assert.True(t, got[0].ObservedAt.Equal(snap.ObservedAt))
	dbtx.AssertExpectations(t)
}

func TestStoreSaveNilSnapshot(t *testing.T) {
	store := testStore(t, new(mockDBTX))
	err := store.Save(context.Background(), nil)
	require.Error(t, err)
}

func TestStoreGetByDayEmpty(t *testing.T) {
	dbtx := new(mockDBTX)
	store := testStore(t, dbtx)

	dbtx.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&payloadRows{}, nil)

	_, err := store.GetByDay(context.Background(), 1, 2, time.Now())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundSnapshot, appErr.Code)
}

func TestStoreGetByDaySkipsCorruptRows(t *testing.T) {
	dbtx := new(mockDBTX)
	store := testStore(t, dbtx)
	ctx := context.Background()

	var compressed []byte
	dbtx.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			execArgs := args.Get(2).([]any)
			compressed = execArgs[4].([]byte)
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	rows := &payloadRows{payloads: [][]byte{[]byte("not zstd"), compressed}}
	dbtx.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	got, err := store.GetByDay(ctx, 51.5074, -0.1278, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStorePurge(t *testing.T) {
	dbtx := new(mockDBTX)
	store := testStore(t, dbtx)

	dbtx.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 12"), nil)

	n, err := store.Purge(context.Background(), time.Now().Add(-365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
