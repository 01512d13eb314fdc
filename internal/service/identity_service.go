package service

import (
	"context"
	"fmt"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/util"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// IdentityService 把 JWT 声明解析为调用者画像
type IdentityService struct {
	Users UserFinder
}

func NewIdentityService(users UserFinder) *IdentityService {
	return &IdentityService{Users: users}
}

// CurrentCaller 未登录、用户不存在或已禁用时返回 (nil, nil)
func (s *IdentityService) CurrentCaller(ctx context.Context, claims *util.Claims) (*model.Caller, error) {
	if claims == nil || claims.UserID == 0 {
		return nil, nil
	}

	user, err := s.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load caller %d: %w", claims.UserID, err)
	}
	if user == nil || user.Disabled {
		return nil, nil
	}
	return user.Caller(), nil
}
