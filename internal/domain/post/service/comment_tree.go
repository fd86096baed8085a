package service

import "socialgraph/internal/domain/post/model"

// BuildCommentTree 将按时间排好序的扁平评论组装为 根评论 -> 回复 的结构
// 根评论保持输入顺序；父评论已不存在的回复直接丢弃
func BuildCommentTree(comments []model.CommentView) []*model.CommentView {
	nodes := make(map[string]*model.CommentView, len(comments))
	ordered := make([]*model.CommentView, 0, len(comments))
	for i := range comments {
		node := &comments[i]
		node.Replies = []*model.CommentView{}
		nodes[node.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*model.CommentView, 0)
	for _, node := range ordered {
		if !node.IsReply() {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok {
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return roots
}
