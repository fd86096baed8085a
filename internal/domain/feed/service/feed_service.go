package service

import (
	"context"
	"sort"
	"time"

	"socialgraph/internal/domain/feed/model"
	"socialgraph/internal/domain/feed/repository"
	postModel "socialgraph/internal/domain/post/model"
	postService "socialgraph/internal/domain/post/service"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/metrics"
	"socialgraph/pkg/utils"

	"go.uber.org/zap"
)

// ContentGate 主页可见性校验
type ContentGate interface {
	CanViewContent(ctx context.Context, viewerID, authorID string) (bool, error)
}

// FeedService feed 组装
type FeedService interface {
	GlobalFeed(ctx context.Context, viewerID string, page utils.Pagination) (*model.FeedPage, error)
	HashtagFeed(ctx context.Context, viewerID, tag string, page utils.Pagination) (*model.FeedPage, error)
	TaggedPosts(ctx context.Context, viewerID, userID string, page utils.Pagination) (*model.FeedPage, error)
	UserPosts(ctx context.Context, viewerID, authorID string, page utils.Pagination) (*model.FeedPage, error)
	SavedPosts(ctx context.Context, viewerID string, page utils.Pagination) (*model.FeedPage, error)
	StoryFeed(ctx context.Context, viewerID string) ([]model.StoryGroup, error)
}

type Deps struct {
	Repo    repository.FeedRepository
	Gate    ContentGate
	Now     func() time.Time
	Log     *zap.Logger
	Metrics *metrics.Collector
}

type feedService struct {
	repo    repository.FeedRepository
	gate    ContentGate
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewFeedService(d Deps) FeedService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &feedService{
		repo:    d.Repo,
		gate:    d.Gate,
		now:     d.Now,
		log:     d.Log.Named("feed"),
		metrics: d.Metrics,
	}
}

type pageQuery func(offset, limit int) ([]postModel.PostView, error)

// load 执行分页查询并包装结果
func (s *feedService) load(feed string, page utils.Pagination, query pageQuery) (*model.FeedPage, error) {
	defer s.metrics.ObserveFeed(feed, time.Now())

	offset, limit := page.GetPageOffset()
	posts, err := query(offset, limit)
	if err != nil {
		s.log.Error("feed query failed", zap.String("feed", feed), zap.Error(err))
		return nil, err
	}
	if posts == nil {
		posts = []postModel.PostView{}
	}
	return &model.FeedPage{Page: page.Page, Limit: limit, Posts: posts}, nil
}

// GlobalFeed 主 feed：公开作者、已 accepted 关注的作者以及自己的帖子
func (s *feedService) GlobalFeed(ctx context.Context, viewerID string, page utils.Pagination) (*model.FeedPage, error) {
	return s.load("global", page, func(offset, limit int) ([]postModel.PostView, error) {
		return s.repo.GlobalFeed(ctx, viewerID, offset, limit)
	})
}

// HashtagFeed 话题下的帖子，可见性规则同主 feed
func (s *feedService) HashtagFeed(ctx context.Context, viewerID, tag string, page utils.Pagination) (*model.FeedPage, error) {
	tags := postService.NormalizeHashtags([]string{tag})
	if len(tags) == 0 {
		return nil, apperr.Validation("hashtag is required")
	}
	return s.load("hashtag", page, func(offset, limit int) ([]postModel.PostView, error) {
		return s.repo.HashtagFeed(ctx, viewerID, tags[0], offset, limit)
	})
}

func (s *feedService) TaggedPosts(ctx context.Context, viewerID, userID string, page utils.Pagination) (*model.FeedPage, error) {
	return s.load("tagged", page, func(offset, limit int) ([]postModel.PostView, error) {
		return s.repo.TaggedPosts(ctx, viewerID, userID, offset, limit)
	})
}

// UserPosts 个人主页帖子，私密账号需要 accepted 关注
func (s *feedService) UserPosts(ctx context.Context, viewerID, authorID string, page utils.Pagination) (*model.FeedPage, error) {
	ok, err := s.gate.CanViewContent(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("this account is private")
	}
	return s.load("profile", page, func(offset, limit int) ([]postModel.PostView, error) {
		return s.repo.UserPosts(ctx, viewerID, authorID, offset, limit)
	})
}

// SavedPosts 收藏列表
func (s *feedService) SavedPosts(ctx context.Context, viewerID string, page utils.Pagination) (*model.FeedPage, error) {
	result, err := s.load("saved", page, func(offset, limit int) ([]postModel.PostView, error) {
		return s.repo.SavedPosts(ctx, viewerID, offset, limit)
	})
	if err != nil {
		return nil, err
	}
	for i := range result.Posts {
		result.Posts[i].IsSaved = true
	}
	return result, nil
}

// StoryFeed 按作者分组的未过期故事
func (s *feedService) StoryFeed(ctx context.Context, viewerID string) ([]model.StoryGroup, error) {
	defer s.metrics.ObserveFeed("stories", time.Now())

	items, err := s.repo.ActiveStories(ctx, viewerID, s.now())
	if err != nil {
		return nil, err
	}
	return GroupStories(items), nil
}

// GroupStories 按作者分组，输入需按创建时间倒序
// 有未看故事的作者排在前面，同类之间按最新故事时间倒序
func GroupStories(items []model.StoryItem) []model.StoryGroup {
	index := make(map[string]int)
	groups := make([]model.StoryGroup, 0)
	for _, item := range items {
		i, ok := index[item.AuthorID]
		if !ok {
			i = len(groups)
			index[item.AuthorID] = i
			groups = append(groups, model.StoryGroup{
				AuthorID: item.AuthorID,
				Author:   item.Author,
				LatestAt: item.CreatedAt,
			})
		}
		g := &groups[i]
		g.Stories = append(g.Stories, item)
		if !item.IsSeen {
			g.HasUnseen = true
		}
		if item.CreatedAt.After(g.LatestAt) {
			g.LatestAt = item.CreatedAt
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].HasUnseen != groups[b].HasUnseen {
			return groups[a].HasUnseen
		}
		return groups[a].LatestAt.After(groups[b].LatestAt)
	})
	return groups
}
