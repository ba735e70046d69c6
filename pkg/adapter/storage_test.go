package adapter_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/adapter"
	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
)

func TestStorage(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewStorage(ctx, bucket)
	gt.NoError(t, err)

	key := "test/" + uuid.New().String() + ".json"

	_, err = client.Get(ctx, key)
	gt.True(t, errors.Is(err, adapter.ErrObjectNotFound))

	w, err := client.Put(ctx, key)
	gt.NoError(t, err)
	_, err = w.Write([]byte(`{"id":"s1"}`))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())

	r, err := client.Get(ctx, key)
	gt.NoError(t, err)
	data, err := io.ReadAll(r)
	gt.NoError(t, err)
	gt.NoError(t, r.Close())
	gt.Equal(t, string(data), `{"id":"s1"}`)

	gt.NoError(t, client.Delete(ctx, key))
	gt.NoError(t, client.Delete(ctx, key))
}
