package biz

import (
	"context"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/comp_index/app/display/internal/conf"
)

// mockUserRepo 手写用户仓库 mock
type mockUserRepo struct {
	users map[string]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, u *User) error {
	if _, ok := m.users[u.Username]; ok {
		return errors.Conflict("USER_EXISTS", "username already taken")
	}
	m.users[u.Username] = u
	return nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, errors.NotFound("USER_NOT_FOUND", "user not found")
	}
	return u, nil
}

func testUserUseCase() (*UserUseCase, *mockUserRepo) {
	repo := newMockUserRepo()
	uc := NewUserUseCase(repo, &conf.Auth{JwtKey: "test-key"}, log.DefaultLogger)
	return uc, repo
}

func TestRegisterAndLogin(t *testing.T) {
	uc, repo := testUserUseCase()
	ctx := context.Background()

	if err := uc.Register(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if repo.users["alice"].PasswordHash == "s3cret" {
		t.Error("密码必须哈希后存储")
	}

	token, err := uc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("登录应返回非空 token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	uc, _ := testUserUseCase()
	ctx := context.Background()

	if err := uc.Register(ctx, "bob", "right"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := uc.Login(ctx, "bob", "wrong"); !errors.IsUnauthorized(err) {
		t.Errorf("错误密码应返回 Unauthorized, got %v", err)
	}
	if _, err := uc.Login(ctx, "nobody", "whatever"); !errors.IsNotFound(err) {
		t.Errorf("未知用户应返回 NotFound, got %v", err)
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	uc, _ := testUserUseCase()
	ctx := context.Background()

	if err := uc.Register(ctx, "dave", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := uc.Login(ctx, "dave", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	username, err := uc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if username != "dave" {
		t.Errorf("username = %q, want dave", username)
	}

	u, err := uc.GetProfile(ctx, username)
	if err != nil || u.Username != "dave" {
		t.Errorf("GetProfile = %+v, err=%v", u, err)
	}
}

func TestParseTokenRejectsForged(t *testing.T) {
	uc, _ := testUserUseCase()
	ctx := context.Background()

	if err := uc.Register(ctx, "eve", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := uc.Login(ctx, "eve", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// 换一把密钥签出来的 token 不认
	other := NewUserUseCase(newMockUserRepo(), &conf.Auth{JwtKey: "another-key"}, log.DefaultLogger)
	if _, err := other.ParseToken(token); !errors.IsUnauthorized(err) {
		t.Errorf("异钥 token 应返回 Unauthorized, got %v", err)
	}
	if _, err := uc.ParseToken("not-a-jwt"); !errors.IsUnauthorized(err) {
		t.Errorf("乱串应返回 Unauthorized, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	uc, _ := testUserUseCase()
	ctx := context.Background()

	if err := uc.Register(ctx, "carol", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := uc.Register(ctx, "carol", "pw"); !errors.IsConflict(err) {
		t.Errorf("重复注册应返回 Conflict, got %v", err)
	}
}
