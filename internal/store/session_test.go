package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixgraph/internal/ir"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a, b)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("s-1", "s-2")
	assert.Equal(t, "s-1", gen.Generate())
	assert.Equal(t, "s-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestCreateSession_ReadBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created := createTestSession(t, s, "s-1")
	assert.Equal(t, ir.ClientVersion, created.ClientVersion)
	assert.Equal(t, ir.EncodingVersion, created.EncodingVersion)

	got, err := s.ReadSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateSession_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s-1")

	_, err := s.CreateSession(context.Background(), NewFixedGenerator("s-1"), "x", h(1))
	assert.Error(t, err)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestListSessions_CreationOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, id := range []string{"zz", "aa", "mm"} {
		createTestSession(t, s, id)
	}

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	var ids []string
	for _, info := range sessions {
		ids = append(ids, info.ID)
	}
	assert.Equal(t, []string{"zz", "aa", "mm"}, ids)
}
