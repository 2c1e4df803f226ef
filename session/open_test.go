package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := OpenStore(ctx, StoreOptions{}, nil)
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)
	require.NoError(t, Close(s))

	s, err = OpenStore(ctx, StoreOptions{Kind: KindFile, Path: tempSessionFile(t)}, nil)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	require.NoError(t, Close(s))

	_, err = OpenStore(ctx, StoreOptions{Kind: KindFile}, nil)
	require.Error(t, err)

	_, err = OpenStore(ctx, StoreOptions{Kind: "postgres"}, nil)
	require.Error(t, err)
}
