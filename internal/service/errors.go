package service

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// 哨兵错误：对外统一语义，隐藏底层实现细节
var (
	// ErrUnauthenticated 无法解析调用方身份
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden 调用方已登录但没有管理员声明
	ErrForbidden = errors.New("forbidden: admin only")
	// ErrInvalidInput 参数校验失败（空名称、非法的父子类型组合、非法根类型等）
	ErrInvalidInput = errors.New("invalid input")
	// ErrFilterNotFound 引用的分类节点（自身或父节点）不存在
	ErrFilterNotFound = errors.New("filter node not found")
	// ErrFilterNameConflict 同一父节点下已存在同名节点
	ErrFilterNameConflict = errors.New("filter node name already exists under this parent")
	// ErrTaxonomyTooDeep 遍历深度超过上限，说明数据绕过了校验
	ErrTaxonomyTooDeep = errors.New("taxonomy depth limit exceeded")
	// ErrPostNotFound 帖子不存在
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidCredentials 用户名或密码错误（登录时统一返回，防止用户枚举）
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserNotFound 用户不存在（仅用于非登录场景，如 GetProfile）
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists 用户已存在（注册时）
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInternal 内部错误（对外不暴露细节）
	ErrInternal = errors.New("internal server error")
)

// mysqlDuplicateEntry 是 MySQL 唯一键冲突的错误码
const mysqlDuplicateEntry = 1062

// isDuplicateKey 判断是否为唯一索引冲突。并发创建同名兄弟节点时，
// 预检查都会通过，最终由 uk_filter_parent_name 索引拦下。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
