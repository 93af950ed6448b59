package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreTest(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, "test"), mr
}

func testSession() *identity.Session {
	return &identity.Session{
		ID:           "sid-1",
		AccessToken:  "access." + strings.Repeat("x", 600),
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Unix(1900000000, 0).UTC(),
		User: identity.User{
			ID:        "u-1",
			Email:     "admin@example.com",
			Metadata:  map[string]string{"full_name": "Senhor Incrível", "locale": "pt-MZ"},
			CreatedAt: time.Unix(1700000000, 0).UTC(),
		},
	}
}

func TestEncodeDecodeKeepsEveryField(t *testing.T) {
	sess := testSession()

	data, err := Encode(sess)
	require.NoError(t, err)
	require.Equal(t, byte(formatVersionCurrent), data[0])

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

func TestDecodeAcceptsV1WithoutMetadata(t *testing.T) {
	sess := testSession()
	sess.User.Metadata = nil
	data, err := Encode(sess)
	require.NoError(t, err)

	// A v1 record is the current layout minus the metadata count byte.
	metaOffset := len(data) - 16 - 1
	v1 := append([]byte{formatVersionV1}, data[1:metaOffset]...)
	v1 = append(v1, data[metaOffset+1:]...)

	got, err := Decode(v1)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

func TestDecodeRejectsUnknownVersionAndTruncation(t *testing.T) {
	_, err := Decode([]byte{99})
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	data, err := Encode(testSession())
	require.NoError(t, err)
	for _, cut := range []int{0, 1, 3, 20, len(data) - 1} {
		_, err := Decode(data[:cut])
		assert.Error(t, err, "cut at %d", cut)
	}

	_, err = Decode(append(data, 0))
	assert.Error(t, err)
}

func TestEncodeRejectsOversizedFields(t *testing.T) {
	sess := testSession()
	sess.AccessToken = strings.Repeat("a", maxFieldLen+1)
	_, err := Encode(sess)
	assert.Error(t, err)

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestStoreSaveLoadDelete(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "default")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "default", testSession(), time.Hour))
	assert.True(t, mr.Exists("test:session:default"))
	assert.Equal(t, time.Hour, mr.TTL("test:session:default"))

	got, err := store.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", got.ID)

	ok, err := store.Exists(ctx, "default")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "default"))
	require.NoError(t, store.Delete(ctx, "default"))
	_, err = store.Load(ctx, "default")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSaveRaisesTinyTTL(t *testing.T) {
	store, mr := newStoreTest(t)
	require.NoError(t, store.Save(context.Background(), "p", testSession(), time.Millisecond))
	assert.Equal(t, time.Second, mr.TTL("test:session:p"))
}

func TestStoreLoadExpiresWithTTL(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "p", testSession(), 2*time.Second))

	mr.FastForward(3 * time.Second)

	_, err := store.Load(ctx, "p")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoadCorruptRecord(t *testing.T) {
	store, mr := newStoreTest(t)
	require.NoError(t, mr.Set("test:session:p", "\x02garbage"))

	_, err := store.Load(context.Background(), "p")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestStoreDeleteIfOnlyRemovesMatchingSession(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "p", testSession(), time.Hour))

	deleted, err := store.DeleteIf(ctx, "p", "sid-other")
	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = store.Load(ctx, "p")
	require.NoError(t, err)

	deleted, err = store.DeleteIf(ctx, "p", "sid-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = store.Load(ctx, "p")
	require.ErrorIs(t, err, ErrNotFound)

	deleted, err = store.DeleteIf(ctx, "p", "sid-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStoreReportsRedisUnavailable(t *testing.T) {
	store, mr := newStoreTest(t)
	mr.Close()

	_, err := store.Load(context.Background(), "p")
	require.ErrorIs(t, err, ErrRedisUnavailable)
	_, err = store.Ping(context.Background())
	require.ErrorIs(t, err, ErrRedisUnavailable)
}
