package posts

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Post{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return NewService(repo.New(db), nil, "", events.NewProducer(nil))
}

func TestCreatePost(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Create(ctx, CreatePostCommand{
		Title:       "Hello",
		FriendlyURL: "hello",
		Content:     "first post",
		CreatedBy:   "alice",
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, dispatch.StatusCreated, res.Status)
	require.NotZero(t, res.Value.ID)
	require.Equal(t, "alice", res.Value.CreatedBy)
	require.False(t, res.Value.DateCreated.IsZero())
}

func TestCreatePostDuplicateFriendlyURL(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Create(ctx, CreatePostCommand{Title: "Hello", FriendlyURL: "hello", Content: "x", CreatedBy: "alice"})
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = s.Create(ctx, CreatePostCommand{Title: "Other", FriendlyURL: "hello", Content: "y", CreatedBy: "bob"})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusConflict, res.Status)
	require.Equal(t, "The friendly url already exists.", res.ErrMessage)
}

func TestGetByIDNotFound(t *testing.T) {
	s := newTestService(t)

	res, err := s.GetByID(context.Background(), GetPostByIDQuery{ID: 42})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusNotFound, res.Status)
	require.Contains(t, res.ErrMessage, "42")
}

func TestUpdatePost(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreatePostCommand{Title: "Hello", FriendlyURL: "hello", Content: "x", CreatedBy: "alice"})
	require.NoError(t, err)

	res, err := s.Update(ctx, UpdatePostCommand{ID: created.Value.ID, Title: "Hello v2", FriendlyURL: "hello", Content: "y"})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, "Hello v2", res.Value.Title)
	require.Equal(t, "y", res.Value.Content)

	missing, err := s.Update(ctx, UpdatePostCommand{ID: 999, Title: "x", FriendlyURL: "x", Content: "x"})
	require.NoError(t, err)
	require.False(t, missing.OK)
	require.Equal(t, dispatch.StatusNotFound, missing.Status)
}

func TestUpdatePostFriendlyURLConflict(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreatePostCommand{Title: "A", FriendlyURL: "a", Content: "x", CreatedBy: "alice"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreatePostCommand{Title: "B", FriendlyURL: "b", Content: "x", CreatedBy: "alice"})
	require.NoError(t, err)

	res, err := s.Update(ctx, UpdatePostCommand{ID: b.Value.ID, Title: "B", FriendlyURL: "a", Content: "x"})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusConflict, res.Status)
}

func TestDeletePost(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreatePostCommand{Title: "Hello", FriendlyURL: "hello", Content: "x", CreatedBy: "alice"})
	require.NoError(t, err)

	res, err := s.Delete(ctx, DeletePostCommand{ID: created.Value.ID})
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = s.Delete(ctx, DeletePostCommand{ID: created.Value.ID})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusNotFound, res.Status)
}

func TestListPosts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	urls := []string{"a", "b", "c"}
	for _, u := range urls {
		_, err := s.Create(ctx, CreatePostCommand{Title: "T", FriendlyURL: u, Content: "x", CreatedBy: "alice"})
		require.NoError(t, err)
	}

	res, err := s.List(ctx, ListPostsQuery{Page: 1, Size: 2})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Len(t, res.Value.Data, 2)
	require.EqualValues(t, 3, res.Value.Meta.Total)
	require.EqualValues(t, 2, res.Value.Meta.TotalPages)
	require.True(t, res.Value.Meta.HasNext)
	require.False(t, res.Value.Meta.HasPrev)

	res, err = s.List(ctx, ListPostsQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, res.Value.Data, 1)
	require.True(t, res.Value.Meta.HasPrev)
	require.False(t, res.Value.Meta.HasNext)
}
