package hospitals

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

func cacheFixture(t *testing.T) (*CachedStore, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cached := NewCachedStore(NewStore(db), client, time.Minute, logging.NewWithWriter("error", io.Discard))
	return cached, mock, mr
}

func TestCachedStoreGetHospitalFillsCache(t *testing.T) {
	cached, mock, mr := cacheFixture(t)
	id := uuid.New()
	now := time.Now()

	// First read misses and hits the database once; the second read is
	// served from Redis with no further query expectation.
	mock.ExpectQuery("SELECT(.+)FROM hospitals WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(hospitalCols).AddRow(
			id, "Ridge Hospital", "", "Accra", "", "", "",
			pq.Array([]string{"cardiology"}), true, now, now,
		))

	h, err := cached.GetHospital(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ridge Hospital", h.Name)
	assert.True(t, mr.Exists("hospital:"+id.String()))

	again, err := cached.GetHospital(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, h.Name, again.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedStoreDropsCorruptEntry(t *testing.T) {
	cached, mock, mr := cacheFixture(t)
	id := uuid.New()
	now := time.Now()
	require.NoError(t, mr.Set("hospital:"+id.String(), "{not json"))

	mock.ExpectQuery("SELECT(.+)FROM hospitals WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(hospitalCols).AddRow(
			id, "Ridge Hospital", "", "", "", "", "",
			pq.Array([]string{}), true, now, now,
		))

	h, err := cached.GetHospital(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ridge Hospital", h.Name)

	// Entry was rewritten with valid JSON.
	raw, err := mr.Get("hospital:" + id.String())
	require.NoError(t, err)
	var stored Hospital
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, h.ID, stored.ID)
}

func TestCachedStoreInvalidate(t *testing.T) {
	cached, _, mr := cacheFixture(t)
	id := uuid.New()
	require.NoError(t, mr.Set("hospital:"+id.String(), "{}"))
	require.NoError(t, mr.Set("hospitals:active", "[]"))

	cached.Invalidate(context.Background(), id)

	assert.False(t, mr.Exists("hospital:"+id.String()))
	assert.False(t, mr.Exists("hospitals:active"))
}

func TestCachedStoreListActive(t *testing.T) {
	cached, mock, mr := cacheFixture(t)
	now := time.Now()
	mock.ExpectQuery("SELECT(.+)FROM hospitals").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(hospitalCols).AddRow(
			uuid.New(), "Ridge Hospital", "", "", "", "", "",
			pq.Array([]string{}), true, now, now,
		))

	out, err := cached.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, mr.Exists("hospitals:active"))
}
