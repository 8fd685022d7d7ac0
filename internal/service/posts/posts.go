package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/util"
)

type CreatePostCommand struct {
	Title       string
	FriendlyURL string
	Content     string
	CreatedBy   string
}

type UpdatePostCommand struct {
	ID          uint
	Title       string
	FriendlyURL string
	Content     string
}

type DeletePostCommand struct {
	ID uint
}

type GetPostByIDQuery struct {
	ID uint
}

type ListPostsQuery struct {
	Page int
	Size int
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type PostPage struct {
	Data []models.Post `json:"data"`
	Meta PageMeta      `json:"meta"`
}

type Service struct {
	Repo     *repo.GormRepo
	ES       *elasticsearch.Client
	ESIndex  string
	Producer *events.Producer
	HTTP     *http.Client
}

func NewService(r *repo.GormRepo, es *elasticsearch.Client, esIndex string, producer *events.Producer) *Service {
	return &Service{Repo: r, ES: es, ESIndex: esIndex, Producer: producer}
}

func (s *Service) RegisterHandlers(d *dispatch.Dispatcher) {
	dispatch.Register(d, s.Create)
	dispatch.Register(d, s.Update)
	dispatch.Register(d, s.Delete)
	dispatch.Register(d, s.GetByID)
	dispatch.Register(d, s.List)
	dispatch.Register(d, s.ImportFromCSV)
}

func (s *Service) Create(ctx context.Context, cmd CreatePostCommand) (dispatch.Result[models.Post], error) {
	l := logging.FromContext(ctx).With("svc", "posts.create")

	post := models.Post{
		Title:       cmd.Title,
		FriendlyURL: cmd.FriendlyURL,
		Content:     cmd.Content,
		DateCreated: time.Now().UTC(),
		CreatedBy:   cmd.CreatedBy,
	}
	if err := s.Repo.CreatePost(ctx, &post); err != nil {
		if errors.Is(err, repo.ErrFriendlyURLTaken) {
			l.Warn("create_failed", "status", 409, "reason", "friendly_url_taken", "friendly_url", cmd.FriendlyURL)
			return dispatch.Failure[models.Post](dispatch.StatusConflict, "The friendly url already exists."), nil
		}
		l.Error("create_failed", "status", 500, "reason", "db_error", "error", err)
		return dispatch.Result[models.Post]{}, err
	}

	s.indexPost(ctx, &post)
	s.publish(ctx, map[string]interface{}{
		"type":    "post_created",
		"post_id": post.ID,
		"title":   post.Title,
	})
	l.Info("create_success", "post_id", post.ID)
	return dispatch.Created(post), nil
}

func (s *Service) Update(ctx context.Context, cmd UpdatePostCommand) (dispatch.Result[models.Post], error) {
	l := logging.FromContext(ctx).With("svc", "posts.update")

	post, err := s.Repo.GetPostByID(ctx, cmd.ID)
	if err != nil {
		if errors.Is(err, repo.ErrPostNotFound) {
			l.Warn("update_failed", "status", 404, "post_id", cmd.ID)
			return dispatch.Failure[models.Post](dispatch.StatusNotFound, notFoundMessage(cmd.ID)), nil
		}
		return dispatch.Result[models.Post]{}, err
	}

	if cmd.FriendlyURL != post.FriendlyURL {
		taken, err := s.Repo.FriendlyURLExists(ctx, cmd.FriendlyURL)
		if err != nil {
			return dispatch.Result[models.Post]{}, err
		}
		if taken {
			l.Warn("update_failed", "status", 409, "reason", "friendly_url_taken", "friendly_url", cmd.FriendlyURL)
			return dispatch.Failure[models.Post](dispatch.StatusConflict, "The friendly url already exists."), nil
		}
	}

	post.Title = cmd.Title
	post.FriendlyURL = cmd.FriendlyURL
	post.Content = cmd.Content

	if err := s.Repo.UpdatePost(ctx, post); err != nil {
		l.Error("update_failed", "status", 500, "reason", "db_error", "error", err)
		return dispatch.Result[models.Post]{}, err
	}

	s.indexPost(ctx, post)
	s.publish(ctx, map[string]interface{}{
		"type":    "post_updated",
		"post_id": post.ID,
		"title":   post.Title,
	})
	l.Info("update_success", "post_id", post.ID)
	return dispatch.Success(*post), nil
}

func (s *Service) Delete(ctx context.Context, cmd DeletePostCommand) (dispatch.Result[struct{}], error) {
	l := logging.FromContext(ctx).With("svc", "posts.delete")

	if err := s.Repo.DeletePost(ctx, cmd.ID); err != nil {
		if errors.Is(err, repo.ErrPostNotFound) {
			l.Warn("delete_failed", "status", 404, "post_id", cmd.ID)
			return dispatch.Failure[struct{}](dispatch.StatusNotFound, notFoundMessage(cmd.ID)), nil
		}
		l.Error("delete_failed", "status", 500, "reason", "db_error", "error", err)
		return dispatch.Result[struct{}]{}, err
	}

	s.deleteFromIndex(ctx, cmd.ID)
	s.publish(ctx, map[string]interface{}{
		"type":    "post_deleted",
		"post_id": cmd.ID,
	})
	l.Info("delete_success", "post_id", cmd.ID)
	return dispatch.Success(struct{}{}), nil
}

func (s *Service) GetByID(ctx context.Context, q GetPostByIDQuery) (dispatch.Result[models.Post], error) {
	post, err := s.Repo.GetPostByID(ctx, q.ID)
	if err != nil {
		if errors.Is(err, repo.ErrPostNotFound) {
			return dispatch.Failure[models.Post](dispatch.StatusNotFound, notFoundMessage(q.ID)), nil
		}
		return dispatch.Result[models.Post]{}, err
	}
	return dispatch.Success(*post), nil
}

func (s *Service) List(ctx context.Context, q ListPostsQuery) (dispatch.Result[PostPage], error) {
	offset, limit := util.Calculate(q.Page, q.Size)

	posts, total, err := s.Repo.ListPosts(ctx, offset, limit)
	if err != nil {
		return dispatch.Result[PostPage]{}, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	return dispatch.Success(PostPage{
		Data: posts,
		Meta: PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	}), nil
}

// notFoundMessage names the missing id so 404 responses stay debuggable.
func notFoundMessage(id uint) string {
	return fmt.Sprintf("Post %d not found.", id)
}

// ES indexing is best-effort: the database is the source of truth and a
// search index miss must not fail the write.
func (s *Service) indexPost(ctx context.Context, p *models.Post) {
	if s.ES == nil {
		return
	}
	l := logging.FromContext(ctx)

	body, err := json.Marshal(p)
	if err != nil {
		l.Error("es index error", "post_id", p.ID, "error", err)
		return
	}
	res, err := s.ES.Index(
		s.ESIndex,
		bytes.NewReader(body),
		s.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		l.Error("es index error", "post_id", p.ID, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		l.Error("es index error", "post_id", p.ID, "status", res.Status())
	}
}

func (s *Service) deleteFromIndex(ctx context.Context, id uint) {
	if s.ES == nil {
		return
	}
	l := logging.FromContext(ctx)

	res, err := s.ES.Delete(
		s.ESIndex,
		strconv.FormatUint(uint64(id), 10),
		s.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		l.Error("es delete error", "post_id", id, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		l.Error("es delete error", "post_id", id, "status", res.Status())
	}
}

func (s *Service) publish(ctx context.Context, event map[string]interface{}) {
	key := ""
	if id, ok := event["post_id"]; ok {
		key = fmt.Sprint(id)
	}
	if err := s.Producer.PublishEvent(ctx, "post_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
