package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rgabuco/webapp-sodv2201-final/internal/dto"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/pkg/storage"
)

// ── 测试辅助 ──

type mockPhotoStore struct {
	saveErr error
	saved   []string
	removed []string
}

func (m *mockPhotoStore) SavePhoto(r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "/uploads/profile_photos/photo-" + string(rune('a'+len(m.saved))) + ".png"
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *mockPhotoStore) Remove(url string) error {
	m.removed = append(m.removed, url)
	return nil
}

func setupTestUserService(t *testing.T) (UserService, *mockRepos, *mockPhotoStore) {
	t.Helper()
	m := newMockRepos()
	photos := &mockPhotoStore{}
	return NewUserService(m.repository(), photos, nopLogger()), m, photos
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func signupRequest(username string) *dto.SignupRequest {
	return &dto.SignupRequest{
		Username:  username,
		Password:  "password123",
		Email:     username + "@test.com",
		FirstName: "Test",
		LastName:  "User",
		Program:   "Software Development",
	}
}

// ── Signup 测试 ──

func TestUserService_Signup_AssignsSequentialStudentIDs(t *testing.T) {
	svc, _, _ := setupTestUserService(t)

	first, err := svc.Signup(context.Background(), signupRequest("alice"))
	if err != nil {
		t.Fatalf("Signup 应成功: %v", err)
	}
	second, err := svc.Signup(context.Background(), signupRequest("bobby"))
	if err != nil {
		t.Fatalf("Signup 应成功: %v", err)
	}
	if first.StudentID != model.StudentIDStart+1 {
		t.Errorf("期望首个学号=%d，实际=%d", model.StudentIDStart+1, first.StudentID)
	}
	if second.StudentID != first.StudentID+1 {
		t.Errorf("学号应递增，实际 %d -> %d", first.StudentID, second.StudentID)
	}
	if first.IsAdmin {
		t.Error("注册用户不应为管理员")
	}
}

func TestUserService_Signup_DuplicateUsername(t *testing.T) {
	svc, _, _ := setupTestUserService(t)
	if _, err := svc.Signup(context.Background(), signupRequest("alice")); err != nil {
		t.Fatalf("Signup 应成功: %v", err)
	}

	req := signupRequest("alice")
	req.Email = "other@test.com"
	_, err := svc.Signup(context.Background(), req)
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("期望 ErrUsernameExists，实际: %v", err)
	}
}

func TestUserService_Signup_DuplicateEmail(t *testing.T) {
	svc, _, _ := setupTestUserService(t)
	if _, err := svc.Signup(context.Background(), signupRequest("alice")); err != nil {
		t.Fatalf("Signup 应成功: %v", err)
	}

	req := signupRequest("carol")
	req.Email = "alice@test.com"
	_, err := svc.Signup(context.Background(), req)
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

// ── GetByID / List ──

func TestUserService_GetByID_SelfAndAdmin(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	repo := m.repository()
	admin := seedUser(t, repo, "admin", true)
	alice := seedUser(t, repo, "alice", false)
	bob := seedUser(t, repo, "bob", false)

	if _, err := svc.GetByID(context.Background(), callerOf(alice), alice.ID); err != nil {
		t.Errorf("本人查询应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), callerOf(admin), alice.ID); err != nil {
		t.Errorf("管理员查询应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), callerOf(bob), alice.ID); !errors.Is(err, ErrNoPermission) {
		t.Errorf("他人查询期望 ErrNoPermission，实际: %v", err)
	}
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, _, _ := setupTestUserService(t)

	_, err := svc.GetByID(context.Background(), Caller{UserID: "admin", IsAdmin: true}, "nonexistent")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_List_Pagination(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	repo := m.repository()
	for _, name := range []string{"alice", "bobby", "carol"} {
		seedUser(t, repo, name, false)
	}

	list, total, err := svc.List(context.Background(), &dto.UserListRequest{
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Errorf("期望 total=3 len=2，实际 total=%d len=%d", total, len(list))
	}
}

func TestUserService_List_Keyword(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	repo := m.repository()
	seedUser(t, repo, "alice", false)
	seedUser(t, repo, "bobby", false)

	list, total, err := svc.List(context.Background(), &dto.UserListRequest{Keyword: "bob"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || list[0].Username != "bobby" {
		t.Errorf("期望仅匹配 bobby，实际 total=%d", total)
	}
}

// ── Update 测试 ──

func TestUserService_Update_Self(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	alice := seedUser(t, m.repository(), "alice", false)

	result, err := svc.Update(context.Background(), callerOf(alice), alice.ID, &dto.UpdateUserRequest{
		Phone:      strPtr("403-555-0100"),
		Department: strPtr("Business"),
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Phone != "403-555-0100" || result.Department != "Business" {
		t.Errorf("资料未更新: %+v", result)
	}
}

func TestUserService_Update_StudentCannotGrantAdmin(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	alice := seedUser(t, m.repository(), "alice", false)

	_, err := svc.Update(context.Background(), callerOf(alice), alice.ID, &dto.UpdateUserRequest{IsAdmin: boolPtr(true)})
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("期望 ErrNoPermission，实际: %v", err)
	}
	if m.users.users[alice.ID].IsAdmin {
		t.Error("学生不应成为管理员")
	}
}

func TestUserService_Update_AdminGrantsAdmin(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	repo := m.repository()
	admin := seedUser(t, repo, "admin", true)
	alice := seedUser(t, repo, "alice", false)

	result, err := svc.Update(context.Background(), callerOf(admin), alice.ID, &dto.UpdateUserRequest{IsAdmin: boolPtr(true)})
	if err != nil {
		t.Fatalf("管理员授权应成功: %v", err)
	}
	if !result.IsAdmin {
		t.Error("期望 is_admin=true")
	}
}

func TestUserService_Update_AdminSelfRoleChange(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	admin := seedUser(t, m.repository(), "admin", true)

	_, err := svc.Update(context.Background(), callerOf(admin), admin.ID, &dto.UpdateUserRequest{IsAdmin: boolPtr(false)})
	if !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("期望 ErrUserSelfRoleChange，实际: %v", err)
	}
}

func TestUserService_Update_CannotUpdateOthers(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	repo := m.repository()
	alice := seedUser(t, repo, "alice", false)
	bob := seedUser(t, repo, "bob", false)

	_, err := svc.Update(context.Background(), callerOf(bob), alice.ID, &dto.UpdateUserRequest{Phone: strPtr("1")})
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("期望 ErrNoPermission，实际: %v", err)
	}
}

func TestUserService_Update_DuplicateEmail(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	repo := m.repository()
	alice := seedUser(t, repo, "alice", false)
	seedUser(t, repo, "bob", false)

	_, err := svc.Update(context.Background(), callerOf(alice), alice.ID, &dto.UpdateUserRequest{Email: strPtr("bob@test.com")})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestUserService_Delete_ReleasesSeats(t *testing.T) {
	svc, m, photos := setupTestUserService(t)
	repo := m.repository()
	p := seedProgram(t, repo, "SD01", testCourse("CS101", 2, 30), testCourse("CS102", 2, 30))
	admin := seedUser(t, repo, "admin", true)
	alice := seedUser(t, repo, "alice", false)
	alice.ProfilePhoto = "/uploads/profile_photos/alice.png"

	enroll := NewEnrollmentService(testConfig(), repo, nil, nopLogger())
	for _, code := range []string{"CS101", "CS102"} {
		if _, err := enroll.EnrollUserInCourse(context.Background(), callerOf(alice), alice.ID, code); err != nil {
			t.Fatalf("选课应成功: %v", err)
		}
	}

	if err := svc.Delete(context.Background(), callerOf(admin), alice.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	for _, c := range p.Courses {
		if got := m.courses.courses[c.ID].SeatsAvailable; got != 2 {
			t.Errorf("课程 %s 座位应归还为 2，实际=%d", c.Code, got)
		}
	}
	if n, _ := m.enrollments.Count(context.Background()); n != 0 {
		t.Errorf("选课快照应全部删除，剩余=%d", n)
	}
	if _, ok := m.users.users[alice.ID]; ok {
		t.Error("用户应被删除")
	}
	if len(photos.removed) != 1 {
		t.Error("应删除用户头像文件")
	}
}

func TestUserService_Delete_RequiresAdmin(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	alice := seedUser(t, m.repository(), "alice", false)

	if err := svc.Delete(context.Background(), callerOf(alice), alice.ID); !errors.Is(err, ErrNoPermission) {
		t.Errorf("期望 ErrNoPermission，实际: %v", err)
	}
}

func TestUserService_Delete_SelfProtection(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	admin := seedUser(t, m.repository(), "admin", true)

	if err := svc.Delete(context.Background(), callerOf(admin), admin.ID); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}
}

func TestUserService_Delete_NotFound(t *testing.T) {
	svc, m, _ := setupTestUserService(t)
	admin := seedUser(t, m.repository(), "admin", true)

	if err := svc.Delete(context.Background(), callerOf(admin), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── 头像上传 ──

func TestUserService_UploadProfilePhoto_ReplacesOld(t *testing.T) {
	svc, m, photos := setupTestUserService(t)
	alice := seedUser(t, m.repository(), "alice", false)

	first, err := svc.UploadProfilePhoto(context.Background(), callerOf(alice), alice.ID, bytes.NewReader([]byte("img")))
	if err != nil {
		t.Fatalf("上传应成功: %v", err)
	}
	second, err := svc.UploadProfilePhoto(context.Background(), callerOf(alice), alice.ID, bytes.NewReader([]byte("img")))
	if err != nil {
		t.Fatalf("再次上传应成功: %v", err)
	}
	if m.users.users[alice.ID].ProfilePhoto != second.ProfilePhoto {
		t.Error("用户头像应为最新上传")
	}
	if len(photos.removed) != 1 || photos.removed[0] != first.ProfilePhoto {
		t.Errorf("旧头像应被删除，实际=%v", photos.removed)
	}
}

func TestUserService_UploadProfilePhoto_StorageErrors(t *testing.T) {
	cases := []struct {
		storeErr error
		want     error
	}{
		{storage.ErrFileTooLarge, ErrPhotoTooLarge},
		{storage.ErrUnsupportedType, ErrPhotoInvalidType},
		{storage.ErrEmptyFile, ErrPhotoInvalidType},
	}
	for _, tc := range cases {
		svc, m, photos := setupTestUserService(t)
		alice := seedUser(t, m.repository(), "alice", false)
		photos.saveErr = tc.storeErr

		_, err := svc.UploadProfilePhoto(context.Background(), callerOf(alice), alice.ID, bytes.NewReader(nil))
		if !errors.Is(err, tc.want) {
			t.Errorf("存储错误 %v 期望映射为 %v，实际: %v", tc.storeErr, tc.want, err)
		}
	}
}

func TestUserService_UploadProfilePhoto_Disabled(t *testing.T) {
	m := newMockRepos()
	svc := NewUserService(m.repository(), nil, nopLogger())
	alice := seedUser(t, m.repository(), "alice", false)

	_, err := svc.UploadProfilePhoto(context.Background(), callerOf(alice), alice.ID, bytes.NewReader(nil))
	if !errors.Is(err, ErrPhotoUploadDisabled) {
		t.Errorf("期望 ErrPhotoUploadDisabled，实际: %v", err)
	}
}
