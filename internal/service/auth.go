package service

import "careerpath_go/internal/model"

// AdminIdentity 是通过管理员校验后的调用方。
type AdminIdentity struct {
	UserID   uint
	Username string
}

// RequireAdmin 是唯一的管理员能力检查，所有写操作和管理员读操作都在入口处调用。
// caller 由认证中间件在每次请求时从数据库重新加载，因此这里看到的是实时角色。
func RequireAdmin(caller *model.User) (*AdminIdentity, error) {
	if caller == nil || caller.Username == "" {
		return nil, ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return &AdminIdentity{UserID: caller.ID, Username: caller.Username}, nil
}
