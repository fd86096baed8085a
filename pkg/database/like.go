package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern 生成子串匹配的 LIKE 模式，关键字中的通配符按字面匹配
// 配合 `LIKE ? ESCAPE '\'` 使用
func ContainsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}
