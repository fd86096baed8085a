package database

import (
	"errors"

	"socialgraph/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	// uniqueViolation postgres SQLSTATE 23505
	uniqueViolation = "23505"
	// invalidTextRepresentation 22P02，如非法 uuid 字面量
	invalidTextRepresentation = "22P02"
)

// IsUniqueViolation 判断错误是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsNotFound 判断是否为记录不存在
// 非法 uuid 不可能对应任何记录，同样视为不存在
func IsNotFound(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// Translate 将记录不存在转换为 NotFound 业务错误，其余错误原样返回
func Translate(err error, notFoundMsg string) error {
	if IsNotFound(err) {
		return apperr.NotFound(notFoundMsg)
	}
	return err
}
