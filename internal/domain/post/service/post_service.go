package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"socialgraph/internal/domain/post/model"
	"socialgraph/internal/domain/post/repository"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/database"
	baseModel "socialgraph/pkg/model"
	"socialgraph/pkg/utils"

	"go.uber.org/zap"
)

const (
	maxCaptionLength = 2200
	maxCommentLength = 1000
)

// SocialGraph 帖子可见性与 @ 校验所需的关注关系查询
type SocialGraph interface {
	CanViewContent(ctx context.Context, viewerID, authorID string) (bool, error)
	FilterAcceptedFollowing(ctx context.Context, followerID string, candidates []string) ([]string, error)
}

// CreatePostInput 发帖参数
type CreatePostInput struct {
	Caption     string
	Media       []baseModel.MediaItem
	TaggedUsers []string
	Hashtags    []string
}

// UpdatePostInput 编辑参数
// Replace 非 nil 时整体替换媒体，否则先按 RemoveStorageIDs 移除再追加 Add
type UpdatePostInput struct {
	Caption          *string
	Replace          []baseModel.MediaItem
	Add              []baseModel.MediaItem
	RemoveStorageIDs []string
}

// LikeResult 点赞切换结果
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// PostService 帖子服务
type PostService interface {
	CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, error)
	EnsureAuthor(ctx context.Context, actorID, postID string) error
	UpdatePost(ctx context.Context, actorID, postID string, in UpdatePostInput) (*model.Post, error)
	GetPost(ctx context.Context, viewerID, postID string) (*model.PostView, error)
	DeletePost(ctx context.Context, actorID, postID string) error

	AddComment(ctx context.Context, authorID, postID, text, parentID string) (*model.Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID string) (int64, error)
	GetComments(ctx context.Context, viewerID, postID string) ([]*model.CommentView, error)

	ToggleLike(ctx context.Context, userID, targetID, targetType string) (*LikeResult, error)
	ToggleSave(ctx context.Context, userID, postID string) (bool, error)

	ListHashtags(ctx context.Context, keyword string, page utils.Pagination) ([]model.HashtagStat, error)
}

// Deps 帖子服务依赖
type Deps struct {
	Repo     repository.PostRepository
	Graph    SocialGraph
	Releaser worker.MediaReleaser
	Log      *zap.Logger
}

type postService struct {
	repo     repository.PostRepository
	graph    SocialGraph
	releaser worker.MediaReleaser
	log      *zap.Logger
}

func NewPostService(d Deps) PostService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &postService{
		repo:     d.Repo,
		graph:    d.Graph,
		releaser: d.Releaser,
		log:      d.Log.Named("post"),
	}
}

func validateCaption(caption string, media []baseModel.MediaItem) error {
	if caption == "" && len(media) == 0 {
		return apperr.Validation("a post needs a caption or at least one media item")
	}
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		return apperr.Validation(fmt.Sprintf("caption must be at most %d characters", maxCaptionLength))
	}
	return nil
}

func (s *postService) getPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, database.Translate(err, "post not found")
	}
	return post, nil
}

// ensureVisible 观察者无权查看作者内容时返回 Forbidden
func (s *postService) ensureVisible(ctx context.Context, viewerID, authorID string) error {
	ok, err := s.graph.CanViewContent(ctx, viewerID, authorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("this account is private")
	}
	return nil
}

// CreatePost 发帖，被 @ 的用户必须是作者已 accepted 关注的人
func (s *postService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, error) {
	caption := utils.Sanitize(in.Caption)
	if err := validateCaption(caption, in.Media); err != nil {
		return nil, err
	}

	tagged := dedupe(in.TaggedUsers)
	if len(tagged) > 0 {
		allowed, err := s.graph.FilterAcceptedFollowing(ctx, authorID, tagged)
		if err != nil {
			return nil, err
		}
		if len(allowed) != len(tagged) {
			return nil, apperr.Validation("you can only tag users you follow")
		}
	}

	post := &model.Post{
		AuthorID:    authorID,
		Caption:     caption,
		Media:       in.Media,
		TaggedUsers: tagged,
		Hashtags:    NormalizeHashtags(in.Hashtags),
	}
	if post.Media == nil {
		post.Media = []baseModel.MediaItem{}
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.log.Info("post created", zap.String("post_id", post.ID), zap.String("author_id", authorID))
	return post, nil
}

// EnsureAuthor 帖子不存在返回 NotFound，不是作者返回 Forbidden
func (s *postService) EnsureAuthor(ctx context.Context, actorID, postID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return apperr.Forbidden("only the author can edit this post")
	}
	return nil
}

// UpdatePost 编辑文案与媒体，读改写在行锁内完成，只有被移除的媒体会在提交后释放
func (s *postService) UpdatePost(ctx context.Context, actorID, postID string, in UpdatePostInput) (*model.Post, error) {
	var removed []baseModel.MediaItem
	post, err := s.repo.Edit(ctx, postID, func(post *model.Post) error {
		if post.AuthorID != actorID {
			return apperr.Forbidden("only the author can edit this post")
		}
		if in.Caption != nil {
			post.Caption = utils.Sanitize(*in.Caption)
		}

		media, dropped := mergeMedia(post.Media, in)
		if err := validateCaption(post.Caption, media); err != nil {
			return err
		}
		post.Media = media
		removed = dropped
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.releaser.Release(removed...)
	return post, nil
}

// mergeMedia 计算更新后的媒体列表以及需要释放的媒体
func mergeMedia(current []baseModel.MediaItem, in UpdatePostInput) ([]baseModel.MediaItem, []baseModel.MediaItem) {
	next := make([]baseModel.MediaItem, 0, len(current)+len(in.Add))
	if in.Replace != nil {
		next = append(next, in.Replace...)
	} else {
		drop := make(map[string]struct{}, len(in.RemoveStorageIDs))
		for _, id := range in.RemoveStorageIDs {
			drop[id] = struct{}{}
		}
		for _, item := range current {
			if _, ok := drop[item.StorageID]; !ok {
				next = append(next, item)
			}
		}
		next = append(next, in.Add...)
	}

	kept := make(map[string]struct{}, len(next))
	for _, item := range next {
		kept[item.StorageID] = struct{}{}
	}
	var removed []baseModel.MediaItem
	for _, item := range current {
		if _, ok := kept[item.StorageID]; !ok {
			removed = append(removed, item)
		}
	}
	return next, removed
}

// GetPost 查看帖子
func (s *postService) GetPost(ctx context.Context, viewerID, postID string) (*model.PostView, error) {
	view, err := s.repo.GetView(ctx, viewerID, postID)
	if err != nil {
		return nil, database.Translate(err, "post not found")
	}
	if err := s.ensureVisible(ctx, viewerID, view.AuthorID); err != nil {
		return nil, err
	}
	return view, nil
}

// DeletePost 删除帖子及其评论、收藏，事务提交后逐个释放媒体
func (s *postService) DeletePost(ctx context.Context, actorID, postID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return apperr.Forbidden("only the author can delete this post")
	}

	if err := s.repo.DeleteCascade(ctx, postID); err != nil {
		return err
	}

	s.releaser.Release(post.Media...)
	s.log.Info("post deleted", zap.String("post_id", postID), zap.Int("media", len(post.Media)))
	return nil
}

// AddComment 评论或回复，回复的父评论必须属于同一帖子
func (s *postService) AddComment(ctx context.Context, authorID, postID, text, parentID string) (*model.Comment, error) {
	text = utils.Sanitize(text)
	if text == "" {
		return nil, apperr.Validation("comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, apperr.Validation(fmt.Sprintf("comment must be at most %d characters", maxCommentLength))
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, authorID, post.AuthorID); err != nil {
		return nil, err
	}

	comment := &model.Comment{PostID: postID, AuthorID: authorID, Text: text}
	if parentID = strings.TrimSpace(parentID); parentID != "" {
		parent, err := s.repo.GetComment(ctx, parentID)
		if err != nil {
			return nil, database.Translate(err, "parent comment not found")
		}
		if parent.PostID != postID {
			return nil, apperr.Validation("parent comment does not belong to this post")
		}
		comment.ParentID = &parentID
	}

	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment 删除评论及其直接回复，返回删除的条数
func (s *postService) DeleteComment(ctx context.Context, actorID, commentID string) (int64, error) {
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return 0, database.Translate(err, "comment not found")
	}
	if comment.AuthorID != actorID {
		return 0, apperr.Forbidden("only the author can delete this comment")
	}
	return s.repo.DeleteCommentCascade(ctx, commentID)
}

// GetComments 帖子的评论树
func (s *postService) GetComments(ctx context.Context, viewerID, postID string) ([]*model.CommentView, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, viewerID, post.AuthorID); err != nil {
		return nil, err
	}

	comments, err := s.repo.ListComments(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	return BuildCommentTree(comments), nil
}

// ToggleLike 切换帖子或评论的点赞
func (s *postService) ToggleLike(ctx context.Context, userID, targetID, targetType string) (*LikeResult, error) {
	var authorID string
	switch targetType {
	case model.TargetPost:
		post, err := s.getPost(ctx, targetID)
		if err != nil {
			return nil, err
		}
		authorID = post.AuthorID
	case model.TargetComment:
		comment, err := s.repo.GetComment(ctx, targetID)
		if err != nil {
			return nil, database.Translate(err, "comment not found")
		}
		post, err := s.getPost(ctx, comment.PostID)
		if err != nil {
			return nil, err
		}
		authorID = post.AuthorID
	default:
		return nil, apperr.Validation("target type must be post or comment")
	}

	if err := s.ensureVisible(ctx, userID, authorID); err != nil {
		return nil, err
	}

	liked, count, err := s.repo.ToggleLike(ctx, userID, targetID, targetType)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

// ToggleSave 切换收藏
func (s *postService) ToggleSave(ctx context.Context, userID, postID string) (bool, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return false, err
	}
	if err := s.ensureVisible(ctx, userID, post.AuthorID); err != nil {
		return false, err
	}
	return s.repo.ToggleSave(ctx, userID, postID)
}

// ListHashtags 热门话题，可按关键字过滤
func (s *postService) ListHashtags(ctx context.Context, keyword string, page utils.Pagination) ([]model.HashtagStat, error) {
	keyword = strings.ToLower(strings.TrimLeft(strings.TrimSpace(keyword), "#"))
	offset, limit := page.GetPageOffset()
	return s.repo.ListHashtags(ctx, keyword, offset, limit)
}
