package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/armeny007/participedia-api/internal/auth"
	"github.com/armeny007/participedia-api/internal/authpw"
	"github.com/armeny007/participedia-api/internal/config"
	"github.com/armeny007/participedia-api/internal/reconcile"
	"github.com/armeny007/participedia-api/internal/search"
	"github.com/armeny007/participedia-api/internal/store"
)

type fakeStore struct {
	getArticleFn         func(context.Context, string, int64, string, int64) (store.Article, error)
	createArticleFn      func(context.Context, string, string) (int64, error)
	commitUpdateFn       func(context.Context, store.CommitParams) error
	listTitlesFn         func(context.Context, string, string) ([]store.TitleRef, error)
	listAuthorsFn        func(context.Context, int64) ([]store.Author, error)
	listTextRevisionsFn  func(context.Context, int64, string) ([]store.LocalizedText, error)
	getUserByIDFn        func(context.Context, int64) (store.User, error)
	getUserByEmailFn     func(context.Context, string) (store.User, error)
	createUserFn         func(context.Context, store.User) (int64, error)
	updateUserProfileFn  func(context.Context, store.User) error
	authoredArticlesFn   func(context.Context, int64, string) ([]store.ArticleSummary, error)
	bookmarkedArticlesFn func(context.Context, int64, string) ([]store.ArticleSummary, error)
	addBookmarkFn        func(context.Context, int64, int64, string) error
	removeBookmarkFn     func(context.Context, int64, int64) error
}

func (f *fakeStore) GetArticle(ctx context.Context, articleType string, id int64, language string, viewerID int64) (store.Article, error) {
	if f.getArticleFn != nil {
		return f.getArticleFn(ctx, articleType, id, language, viewerID)
	}
	return store.Article{}, store.ErrNotFound
}
func (f *fakeStore) CreateArticle(ctx context.Context, articleType, originalLanguage string) (int64, error) {
	if f.createArticleFn != nil {
		return f.createArticleFn(ctx, articleType, originalLanguage)
	}
	return 0, errors.New("createArticle not wired")
}
func (f *fakeStore) CommitUpdate(ctx context.Context, p store.CommitParams) error {
	if f.commitUpdateFn != nil {
		return f.commitUpdateFn(ctx, p)
	}
	return nil
}
func (f *fakeStore) ListTitles(ctx context.Context, articleType, language string) ([]store.TitleRef, error) {
	if f.listTitlesFn != nil {
		return f.listTitlesFn(ctx, articleType, language)
	}
	return nil, nil
}
func (f *fakeStore) ListAuthors(ctx context.Context, thingID int64) ([]store.Author, error) {
	if f.listAuthorsFn != nil {
		return f.listAuthorsFn(ctx, thingID)
	}
	return nil, nil
}
func (f *fakeStore) ListTextRevisions(ctx context.Context, thingID int64, language string) ([]store.LocalizedText, error) {
	if f.listTextRevisionsFn != nil {
		return f.listTextRevisionsFn(ctx, thingID, language)
	}
	return nil, nil
}
func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, id)
	}
	return store.User{}, store.ErrNotFound
}
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, store.ErrNotFound
}
func (f *fakeStore) CreateUser(ctx context.Context, user store.User) (int64, error) {
	if f.createUserFn != nil {
		return f.createUserFn(ctx, user)
	}
	return 1, nil
}
func (f *fakeStore) UpdateUserProfile(ctx context.Context, user store.User) error {
	if f.updateUserProfileFn != nil {
		return f.updateUserProfileFn(ctx, user)
	}
	return nil
}
func (f *fakeStore) AuthoredArticles(ctx context.Context, userID int64, language string) ([]store.ArticleSummary, error) {
	if f.authoredArticlesFn != nil {
		return f.authoredArticlesFn(ctx, userID, language)
	}
	return nil, nil
}
func (f *fakeStore) BookmarkedArticles(ctx context.Context, userID int64, language string) ([]store.ArticleSummary, error) {
	if f.bookmarkedArticlesFn != nil {
		return f.bookmarkedArticlesFn(ctx, userID, language)
	}
	return nil, nil
}
func (f *fakeStore) AddBookmark(ctx context.Context, userID, thingID int64, articleType string) error {
	if f.addBookmarkFn != nil {
		return f.addBookmarkFn(ctx, userID, thingID, articleType)
	}
	return nil
}
func (f *fakeStore) RemoveBookmark(ctx context.Context, userID, thingID int64) error {
	if f.removeBookmarkFn != nil {
		return f.removeBookmarkFn(ctx, userID, thingID)
	}
	return nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeSessions struct {
	refresh map[string]store.User
	revoked map[string]bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{refresh: map[string]store.User{}, revoked: map[string]bool{}}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, tokenHash string, user store.User, _ time.Time) error {
	f.refresh[tokenHash] = user
	return nil
}
func (f *fakeSessions) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	user, ok := f.refresh[tokenHash]
	if !ok {
		return store.User{}, errors.New("session not found")
	}
	return user, nil
}
func (f *fakeSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	delete(f.refresh, tokenHash)
	return nil
}
func (f *fakeSessions) RevokeAccessToken(_ context.Context, jti string, _ time.Time) error {
	f.revoked[jti] = true
	return nil
}
func (f *fakeSessions) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

type fakeSearch struct {
	indexed      []search.Record
	refreshCalls int
	lastQuery    search.Query
	response     search.Response
}

func (f *fakeSearch) Search(q search.Query) search.Response {
	f.lastQuery = q
	return f.response
}
func (f *fakeSearch) IndexArticle(rec search.Record) { f.indexed = append(f.indexed, rec) }
func (f *fakeSearch) RefreshView()                   { f.refreshCalls++ }

type fakeCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func cacheKey(articleType string, id int64, language string) string {
	return fmt.Sprintf("%s/%d/%s", articleType, id, language)
}

func (f *fakeCache) GetArticle(_ context.Context, articleType string, id int64, language string) ([]byte, bool) {
	payload, ok := f.entries[cacheKey(articleType, id, language)]
	return payload, ok
}
func (f *fakeCache) SetArticle(_ context.Context, articleType string, id int64, language string, payload []byte) {
	f.entries[cacheKey(articleType, id, language)] = payload
}
func (f *fakeCache) Invalidate(_ context.Context, articleType string, id int64) {
	f.invalidated = append(f.invalidated, articleType)
	for key := range f.entries {
		delete(f.entries, key)
	}
}

type fakeMedia struct {
	resolveCalls int
}

func (f *fakeMedia) ResolveArticle(*store.Article) { f.resolveCalls++ }
func (f *fakeMedia) PresignUpload(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://minio.local/" + objectName, nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	}
}

func newTestService(fs *fakeStore, sr *fakeSearch, ca *fakeCache, md *fakeMedia) *Service {
	var searchSvc searchService
	if sr != nil {
		searchSvc = sr
	}
	var cacheSvc articleCache
	if ca != nil {
		cacheSvc = ca
	}
	var mediaSvc mediaService
	if md != nil {
		mediaSvc = md
	}
	return NewService(testConfig(), fs, newFakeSessions(), searchSvc, cacheSvc, mediaSvc, authpw.NewService(fs))
}

func submission(pairs map[string]string) reconcile.Submission {
	out := reconcile.Submission{}
	for key, raw := range pairs {
		out[key] = json.RawMessage(raw)
	}
	return out
}

func existingCase(id int64) store.Article {
	return store.Article{
		ID:          id,
		Type:        "case",
		Title:       "Citizens' Assembly on Electoral Reform",
		Body:        "<p>Long body</p>",
		Description: "A deliberative assembly.",
		UpdatedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Fields: map[string]reconcile.Value{
			"featured": reconcile.BoolValue(false),
			"hidden":   reconcile.BoolValue(false),
			"city":     reconcile.TextValue("Vancouver"),
		},
	}
}

func TestUpdateArticleCommitsAndReindexes(t *testing.T) {
	fetchCalls := 0
	var committed store.CommitParams
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, articleType string, id int64, _ string, _ int64) (store.Article, error) {
			fetchCalls++
			article := existingCase(id)
			if fetchCalls > 1 {
				article.Title = "Updated assembly"
			}
			return article, nil
		},
		commitUpdateFn: func(_ context.Context, p store.CommitParams) error {
			committed = p
			return nil
		},
	}
	sr := &fakeSearch{}
	ca := newFakeCache()
	svc := newTestService(fs, sr, ca, nil)

	actor := Session{UserID: 7, UserName: "Avery"}
	updated, err := svc.UpdateArticle(context.Background(), "case", 42, "en", actor,
		submission(map[string]string{"title": `"Updated assembly"`, "city": `"Victoria"`}))
	if err != nil {
		t.Fatalf("UpdateArticle() error = %v", err)
	}

	if committed.Text == nil {
		t.Fatalf("expected a localized text revision")
	}
	if committed.Text.Title != "Updated assembly" {
		t.Fatalf("expected revision title to carry the new value, got %q", committed.Text.Title)
	}
	if committed.Text.Body != "<p>Long body</p>" {
		t.Fatalf("expected revision to carry the unchanged body, got %q", committed.Text.Body)
	}
	if committed.AuthorID != 7 {
		t.Fatalf("expected author 7, got %d", committed.AuthorID)
	}
	if fetchCalls != 2 {
		t.Fatalf("expected a refetch after commit, got %d fetches", fetchCalls)
	}
	if updated.Title != "Updated assembly" {
		t.Fatalf("expected the canonical re-read, got title %q", updated.Title)
	}
	if len(sr.indexed) != 1 || sr.indexed[0].Key != "case-42" {
		t.Fatalf("expected one index push for case-42, got %+v", sr.indexed)
	}
	if sr.refreshCalls != 1 {
		t.Fatalf("expected one view refresh, got %d", sr.refreshCalls)
	}
	if len(ca.invalidated) != 1 {
		t.Fatalf("expected one cache invalidation, got %d", len(ca.invalidated))
	}
}

func TestUpdateArticleSkipsWriteWhenUnchanged(t *testing.T) {
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			return existingCase(id), nil
		},
		commitUpdateFn: func(context.Context, store.CommitParams) error {
			t.Fatalf("expected no commit for an unchanged submission")
			return nil
		},
	}
	sr := &fakeSearch{}
	svc := newTestService(fs, sr, nil, nil)

	article, err := svc.UpdateArticle(context.Background(), "case", 42, "en", Session{UserID: 7},
		submission(map[string]string{
			"title": `"Citizens' Assembly on Electoral Reform"`,
			"city":  `"Vancouver"`,
		}))
	if err != nil {
		t.Fatalf("UpdateArticle() error = %v", err)
	}
	if article.ID != 42 {
		t.Fatalf("expected the existing article back, got id %d", article.ID)
	}
	if len(sr.indexed) != 0 || sr.refreshCalls != 0 {
		t.Fatalf("expected no search work for a no-op edit")
	}
}

func TestUpdateArticleAggregatesValidationErrors(t *testing.T) {
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			return existingCase(id), nil
		},
		commitUpdateFn: func(context.Context, store.CommitParams) error {
			t.Fatalf("expected no commit when validation fails")
			return nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	_, err := svc.UpdateArticle(context.Background(), "case", 42, "en", Session{UserID: 7},
		submission(map[string]string{
			"latitude":           `true`,
			"start_date":         `"definitely-not-a-date"`,
			"scope_of_influence": `"galactic"`,
		}))
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", domainErr.Code)
	}
	rejections, ok := domainErr.Details.([]reconcile.FieldError)
	if !ok {
		t.Fatalf("expected field error details, got %T", domainErr.Details)
	}
	if len(rejections) != 3 {
		t.Fatalf("expected all three rejections aggregated, got %d: %+v", len(rejections), rejections)
	}
}

func TestUpdateArticleIgnoresAdminFieldsForNonAdmins(t *testing.T) {
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			return existingCase(id), nil
		},
		commitUpdateFn: func(context.Context, store.CommitParams) error {
			t.Fatalf("a non-admin touching only admin fields must be a no-op")
			return nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	_, err := svc.UpdateArticle(context.Background(), "case", 42, "en", Session{UserID: 7},
		submission(map[string]string{"featured": `true`, "hidden": `true`}))
	if err != nil {
		t.Fatalf("UpdateArticle() error = %v", err)
	}
}

func TestUpdateArticleAppliesAdminFieldsForAdmins(t *testing.T) {
	var committed store.CommitParams
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			return existingCase(id), nil
		},
		commitUpdateFn: func(_ context.Context, p store.CommitParams) error {
			committed = p
			return nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	_, err := svc.UpdateArticle(context.Background(), "case", 42, "en", Session{UserID: 7, IsAdmin: true},
		submission(map[string]string{"featured": `true`}))
	if err != nil {
		t.Fatalf("UpdateArticle() error = %v", err)
	}
	found := false
	for _, assignment := range committed.Assignments {
		if assignment.Field.Name == "featured" {
			found = true
			if assignment.Value.Kind != reconcile.KindBool || !assignment.Value.Bool {
				t.Fatalf("expected featured=true, got %+v", assignment.Value)
			}
		}
	}
	if !found {
		t.Fatalf("expected a featured assignment in the commit")
	}
}

func TestUpdateArticleDropsSelfReference(t *testing.T) {
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			return existingCase(id), nil
		},
		commitUpdateFn: func(context.Context, store.CommitParams) error {
			t.Fatalf("a self-reference must be treated as unchanged")
			return nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	_, err := svc.UpdateArticle(context.Background(), "case", 42, "en", Session{UserID: 7},
		submission(map[string]string{"is_component_of": `42`}))
	if err != nil {
		t.Fatalf("UpdateArticle() error = %v", err)
	}
}

func TestHiddenArticleIsNotFoundForNonAdmins(t *testing.T) {
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			article := existingCase(id)
			article.Fields["hidden"] = reconcile.BoolValue(true)
			return article, nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	_, err := svc.GetArticle(context.Background(), "case", 42, "en", nil)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 404 {
		t.Fatalf("expected 404 for anonymous viewer, got %v", err)
	}

	admin := Session{UserID: 1, IsAdmin: true}
	if _, err := svc.GetArticle(context.Background(), "case", 42, "en", &admin); err != nil {
		t.Fatalf("expected admins to see hidden articles, got %v", err)
	}
}

func TestCreateArticleRequiresTitle(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil, nil, nil)

	_, err := svc.CreateArticle(context.Background(), "case", "en", Session{UserID: 7},
		submission(map[string]string{"body": `"<p>text</p>"`}))
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Code != "TITLE_REQUIRED" {
		t.Fatalf("expected TITLE_REQUIRED, got %s", domainErr.Code)
	}
}

func TestCreateArticleRunsTheUpdatePath(t *testing.T) {
	created := false
	var committed store.CommitParams
	fs := &fakeStore{
		createArticleFn: func(_ context.Context, articleType, language string) (int64, error) {
			created = true
			if articleType != "method" || language != "fr" {
				t.Fatalf("unexpected create args: %s %s", articleType, language)
			}
			return 99, nil
		},
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			return store.Article{ID: id, Type: "method", Fields: map[string]reconcile.Value{}}, nil
		},
		commitUpdateFn: func(_ context.Context, p store.CommitParams) error {
			committed = p
			return nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	_, err := svc.CreateArticle(context.Background(), "method", "fr", Session{UserID: 7},
		submission(map[string]string{
			"title":   `"Participatory Budgeting"`,
			"summary": `"<p>The body arrives under the legacy key.</p>"`,
		}))
	if err != nil {
		t.Fatalf("CreateArticle() error = %v", err)
	}
	if !created {
		t.Fatalf("expected the bare row insert")
	}
	if committed.Text == nil {
		t.Fatalf("expected the first revision to be written")
	}
	if committed.Text.Title != "Participatory Budgeting" {
		t.Fatalf("unexpected revision title: %q", committed.Text.Title)
	}
	if committed.Text.Body != "<p>The body arrives under the legacy key.</p>" {
		t.Fatalf("expected summary to be aliased into body, got %q", committed.Text.Body)
	}
	if committed.ID != 99 {
		t.Fatalf("expected commit against the new row, got %d", committed.ID)
	}
}

func TestRenderArticleCachesAnonymousReads(t *testing.T) {
	fetches := 0
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			fetches++
			return existingCase(id), nil
		},
	}
	ca := newFakeCache()
	svc := newTestService(fs, nil, ca, nil)

	if _, err := svc.RenderArticle(context.Background(), "case", 42, "en", nil); err != nil {
		t.Fatalf("RenderArticle() error = %v", err)
	}
	if _, err := svc.RenderArticle(context.Background(), "case", 42, "en", nil); err != nil {
		t.Fatalf("RenderArticle() second read error = %v", err)
	}
	if fetches != 1 {
		t.Fatalf("expected the second anonymous read to hit the cache, got %d fetches", fetches)
	}

	viewer := Session{UserID: 7}
	if _, err := svc.RenderArticle(context.Background(), "case", 42, "en", &viewer); err != nil {
		t.Fatalf("RenderArticle() with viewer error = %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected authenticated reads to bypass the cache, got %d fetches", fetches)
	}
}

func TestAddBookmarkChecksVisibility(t *testing.T) {
	fs := &fakeStore{
		getArticleFn: func(_ context.Context, _ string, id int64, _ string, _ int64) (store.Article, error) {
			article := existingCase(id)
			article.Fields["hidden"] = reconcile.BoolValue(true)
			return article, nil
		},
		addBookmarkFn: func(context.Context, int64, int64, string) error {
			t.Fatalf("expected no bookmark for an invisible article")
			return nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	err := svc.AddBookmark(context.Background(), Session{UserID: 7}, "case", 42, "en")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestUserProfileOmitsPrivateFieldsForStrangers(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id int64) (store.User, error) {
			return store.User{ID: id, Email: "avery@example.org", Name: "Avery"}, nil
		},
		bookmarkedArticlesFn: func(context.Context, int64, string) ([]store.ArticleSummary, error) {
			return []store.ArticleSummary{{ID: 42, Type: "case", Title: "A case"}}, nil
		},
	}
	svc := newTestService(fs, nil, nil, nil)

	public, err := svc.UserProfile(context.Background(), 7, "en", nil)
	if err != nil {
		t.Fatalf("UserProfile() error = %v", err)
	}
	if _, ok := public["email"]; ok {
		t.Fatalf("expected email hidden from strangers")
	}
	if _, ok := public["bookmarks"]; ok {
		t.Fatalf("expected bookmarks hidden from strangers")
	}

	self := Session{UserID: 7}
	own, err := svc.UserProfile(context.Background(), 7, "en", &self)
	if err != nil {
		t.Fatalf("UserProfile() self error = %v", err)
	}
	if own["email"] != "avery@example.org" {
		t.Fatalf("expected own email, got %v", own["email"])
	}
	if _, ok := own["bookmarks"]; !ok {
		t.Fatalf("expected own bookmarks present")
	}
}

func TestUpdateUserProfileEnforcesOwnership(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil, nil, nil)

	err := svc.UpdateUserProfile(context.Background(), Session{UserID: 7}, 8, UserProfileInput{})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestRefreshRotatesTheToken(t *testing.T) {
	sessions := newFakeSessions()
	svc := NewService(testConfig(), &fakeStore{}, sessions, nil, nil, nil, authpw.NewService(&fakeStore{}))

	first, err := svc.issueSession(context.Background(), store.User{ID: 7, Name: "Avery"})
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("expected the refresh token to rotate")
	}

	if _, err := svc.Refresh(context.Background(), first.RefreshToken); err == nil {
		t.Fatalf("expected the old refresh token to be single-use")
	}
}

func TestLogoutRevokesTheAccessToken(t *testing.T) {
	sessions := newFakeSessions()
	svc := NewService(testConfig(), &fakeStore{}, sessions, nil, nil, nil, authpw.NewService(&fakeStore{}))

	session, err := svc.issueSession(context.Background(), store.User{ID: 7, Name: "Avery"})
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}
	if err := svc.Logout(context.Background(), session, session.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, err := svc.SessionFromToken(context.Background(), session.Token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected a revoked access token to be rejected, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), session.RefreshToken); err == nil {
		t.Fatalf("expected the refresh session to be revoked")
	}
}

func TestPresignUploadKeysUnderTheCaller(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil, nil, &fakeMedia{})

	uploadURL, objectName, err := svc.PresignUpload(context.Background(), Session{UserID: 7}, "../secret/../photo.jpg")
	if err != nil {
		t.Fatalf("PresignUpload() error = %v", err)
	}
	if !strings.HasPrefix(objectName, "uploads/7/") {
		t.Fatalf("expected object under uploads/7/, got %q", objectName)
	}
	if !strings.HasSuffix(objectName, "-photo.jpg") {
		t.Fatalf("expected the sanitized basename, got %q", objectName)
	}
	if uploadURL == "" {
		t.Fatalf("expected a presigned URL")
	}
}
