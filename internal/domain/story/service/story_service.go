package service

import (
	"context"
	"time"

	"socialgraph/internal/domain/story/model"
	"socialgraph/internal/domain/story/repository"
	userModel "socialgraph/internal/domain/user/model"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/database"
	"socialgraph/pkg/metrics"
	baseModel "socialgraph/pkg/model"

	"go.uber.org/zap"
)

// DefaultTTL 故事默认有效期
const DefaultTTL = 24 * time.Hour

// ContentGate 判断观察者能否查看作者内容
type ContentGate interface {
	CanViewContent(ctx context.Context, viewerID, authorID string) (bool, error)
}

type StoryService interface {
	CreateStory(ctx context.Context, authorID string, media baseModel.MediaItem) (*model.Story, error)
	ViewStory(ctx context.Context, viewerID, storyID string) error
	GetViewers(ctx context.Context, actorID, storyID string) (*model.ViewerList, error)
	DeleteStory(ctx context.Context, actorID, storyID string) error
	SweepExpired(ctx context.Context, now time.Time, batch int) (int, error)
}

// Deps 故事服务依赖，Now 为空时使用 time.Now
type Deps struct {
	Repo     repository.StoryRepository
	Gate     ContentGate
	Releaser worker.MediaReleaser
	TTL      time.Duration
	Now      func() time.Time
	Log      *zap.Logger
	Metrics  *metrics.Collector
}

type storyService struct {
	repo     repository.StoryRepository
	gate     ContentGate
	releaser worker.MediaReleaser
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
	metrics  *metrics.Collector
}

func NewStoryService(d Deps) StoryService {
	if d.TTL <= 0 {
		d.TTL = DefaultTTL
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &storyService{
		repo:     d.Repo,
		gate:     d.Gate,
		releaser: d.Releaser,
		ttl:      d.TTL,
		now:      d.Now,
		log:      d.Log.Named("story"),
		metrics:  d.Metrics,
	}
}

func (s *storyService) CreateStory(ctx context.Context, authorID string, media baseModel.MediaItem) (*model.Story, error) {
	if media.IsZero() {
		return nil, apperr.Validation("a story needs a media file")
	}
	story := &model.Story{
		AuthorID:  authorID,
		Media:     media,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

// getActive 已过期的故事视同不存在
func (s *storyService) getActive(ctx context.Context, storyID string) (*model.Story, error) {
	story, err := s.repo.GetByID(ctx, storyID)
	if err != nil {
		return nil, database.Translate(err, "story not found")
	}
	if story.IsExpired(s.now()) {
		return nil, apperr.NotFound("story not found")
	}
	return story, nil
}

// ViewStory 记录观看，作者本人观看不计入
func (s *storyService) ViewStory(ctx context.Context, viewerID, storyID string) error {
	story, err := s.getActive(ctx, storyID)
	if err != nil {
		return err
	}
	if story.AuthorID == viewerID {
		return nil
	}

	ok, err := s.gate.CanViewContent(ctx, viewerID, story.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("this account is private")
	}
	return s.repo.AddView(ctx, storyID, viewerID)
}

// GetViewers 仅作者可查看观众列表
func (s *storyService) GetViewers(ctx context.Context, actorID, storyID string) (*model.ViewerList, error) {
	story, err := s.repo.GetByID(ctx, storyID)
	if err != nil {
		return nil, database.Translate(err, "story not found")
	}
	if story.AuthorID != actorID {
		return nil, apperr.Forbidden("only the author can see who viewed this story")
	}

	viewers, err := s.repo.ListViewers(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if viewers == nil {
		viewers = []userModel.ViewerEntry{}
	}
	return &model.ViewerList{Viewers: viewers, Count: len(viewers)}, nil
}

// DeleteStory 删除故事，记录删除后释放媒体
func (s *storyService) DeleteStory(ctx context.Context, actorID, storyID string) error {
	story, err := s.repo.GetByID(ctx, storyID)
	if err != nil {
		return database.Translate(err, "story not found")
	}
	if story.AuthorID != actorID {
		return apperr.Forbidden("only the author can delete this story")
	}

	if err := s.repo.Delete(ctx, storyID); err != nil {
		return err
	}
	s.releaser.Release(story.Media)
	return nil
}

// SweepExpired 分批删除过期故事并释放媒体，返回删除总数
// 读取路径本身会过滤过期故事，这里只负责回收存储
func (s *storyService) SweepExpired(ctx context.Context, now time.Time, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}

	total := 0
	for {
		stories, err := s.repo.ListExpired(ctx, now, batch)
		if err != nil {
			return total, err
		}
		if len(stories) == 0 {
			return total, nil
		}

		ids := make([]string, 0, len(stories))
		for _, story := range stories {
			ids = append(ids, story.ID)
		}

		removed, err := s.repo.DeleteExpired(ctx, ids, now)
		if err != nil {
			return total, err
		}
		// 只释放本轮真正删掉的故事的媒体
		deleted := make(map[string]struct{}, len(removed))
		for _, id := range removed {
			deleted[id] = struct{}{}
		}
		media := make([]baseModel.MediaItem, 0, len(removed))
		for _, story := range stories {
			if _, ok := deleted[story.ID]; ok {
				media = append(media, story.Media)
			}
		}
		s.releaser.Release(media...)
		total += len(removed)
		s.metrics.AddStoriesSwept(len(removed))

		if len(stories) < batch {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}
