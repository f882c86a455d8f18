package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/armeny007/participedia-api/internal/auth"
	"github.com/armeny007/participedia-api/internal/authpw"
	"github.com/armeny007/participedia-api/internal/config"
	"github.com/armeny007/participedia-api/internal/reconcile"
	"github.com/armeny007/participedia-api/internal/search"
	"github.com/armeny007/participedia-api/internal/store"
	"github.com/armeny007/participedia-api/internal/util"
)

// Session is an authenticated caller.
type Session struct {
	Token        string
	RefreshToken string
	UserID       int64
	UserName     string
	IsAdmin      bool
	JTI          string
	ExpiresAt    time.Time
}

func (s Session) actor() reconcile.Actor {
	return reconcile.Actor{ID: s.UserID, Admin: s.IsAdmin}
}

// UserProfileInput is a partial profile update; nil members are unchanged.
type UserProfileInput struct {
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	PictureURL *string `json:"picture_url"`
	Location   *string `json:"location"`
	Language   *string `json:"language"`
}

type dataStore interface {
	GetArticle(ctx context.Context, articleType string, id int64, language string, viewerID int64) (store.Article, error)
	CreateArticle(ctx context.Context, articleType, originalLanguage string) (int64, error)
	CommitUpdate(ctx context.Context, p store.CommitParams) error
	ListTitles(ctx context.Context, articleType, language string) ([]store.TitleRef, error)
	ListAuthors(ctx context.Context, thingID int64) ([]store.Author, error)
	ListTextRevisions(ctx context.Context, thingID int64, language string) ([]store.LocalizedText, error)

	GetUserByID(ctx context.Context, id int64) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) (int64, error)
	UpdateUserProfile(ctx context.Context, user store.User) error
	AuthoredArticles(ctx context.Context, userID int64, language string) ([]store.ArticleSummary, error)
	BookmarkedArticles(ctx context.Context, userID int64, language string) ([]store.ArticleSummary, error)

	AddBookmark(ctx context.Context, userID, thingID int64, articleType string) error
	RemoveBookmark(ctx context.Context, userID, thingID int64) error

	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexArticle(rec search.Record)
	RefreshView()
}

type articleCache interface {
	GetArticle(ctx context.Context, articleType string, id int64, language string) ([]byte, bool)
	SetArticle(ctx context.Context, articleType string, id int64, language string, payload []byte)
	Invalidate(ctx context.Context, articleType string, id int64)
}

type mediaService interface {
	ResolveArticle(article *store.Article)
	PresignUpload(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	search   searchService
	cache    articleCache
	media    mediaService
	authpw   *authpw.Service
}

func NewService(cfg config.Config, st dataStore, sessions sessionStore, searchSvc searchService, articleCache articleCache, media mediaService, authSvc *authpw.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		search:   searchSvc,
		cache:    articleCache,
		media:    media,
		authpw:   authSvc,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Sessions

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	user, err := s.authpw.SignUp(ctx, req)
	if errors.Is(err, authpw.ErrEmailTaken) {
		return Session{}, domainError(http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
	}
	if err != nil {
		return Session{}, domainError(http.StatusBadRequest, "INVALID_SIGNUP", err.Error(), nil)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, email, password)
	if errors.Is(err, authpw.ErrBadCredentials) {
		return Session{}, domainError(http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid email or password", nil)
	}
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Session expired", nil)
	}
	// Rotate: each refresh token is single-use.
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, user.Name, user.IsAdmin, jti, expiresAt)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		IsAdmin:      user.IsAdmin,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    userID,
		UserName:  claims.Name,
		IsAdmin:   claims.Admin,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.sessions.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Articles

func notFound() *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func validArticleType(articleType string) error {
	for _, t := range reconcile.SupportedTypes {
		if t == articleType {
			return nil
		}
	}
	return notFound()
}

func boolField(article store.Article, name string) bool {
	value, ok := article.Fields[name]
	return ok && value.Kind == reconcile.KindBool && value.Bool
}

// GetArticle loads one article, enforcing visibility: hidden articles exist
// only for admins.
func (s *Service) GetArticle(ctx context.Context, articleType string, id int64, language string, viewer *Session) (store.Article, error) {
	if err := validArticleType(articleType); err != nil {
		return store.Article{}, err
	}
	var viewerID int64
	isAdmin := false
	if viewer != nil {
		viewerID = viewer.UserID
		isAdmin = viewer.IsAdmin
	}

	article, err := s.store.GetArticle(ctx, articleType, id, language, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Article{}, notFound()
	}
	if err != nil {
		return store.Article{}, err
	}
	if boolField(article, "hidden") && !isAdmin {
		return store.Article{}, notFound()
	}
	if s.media != nil {
		s.media.ResolveArticle(&article)
	}
	return article, nil
}

// RenderArticle is GetArticle plus the anonymous-read cache: only requests
// with no session are cached, because bookmarked is viewer-specific.
func (s *Service) RenderArticle(ctx context.Context, articleType string, id int64, language string, viewer *Session) ([]byte, error) {
	cacheable := viewer == nil && s.cache != nil
	if cacheable {
		if payload, ok := s.cache.GetArticle(ctx, articleType, id, language); ok {
			return payload, nil
		}
	}

	article, err := s.GetArticle(ctx, articleType, id, language, viewer)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(article)
	if err != nil {
		return nil, fmt.Errorf("encode article: %w", err)
	}
	if cacheable {
		s.cache.SetArticle(ctx, articleType, id, language, payload)
	}
	return payload, nil
}

// UpdateArticle applies a partial edit: reconcile against the current record,
// reject on validation failures, skip the write entirely when nothing
// changed, otherwise commit atomically and re-read the canonical row.
func (s *Service) UpdateArticle(ctx context.Context, articleType string, id int64, language string, actor Session, submission reconcile.Submission) (store.Article, error) {
	if err := validArticleType(articleType); err != nil {
		return store.Article{}, err
	}

	existing, err := s.store.GetArticle(ctx, articleType, id, language, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Article{}, notFound()
	}
	if err != nil {
		return store.Article{}, err
	}
	if boolField(existing, "hidden") && !actor.IsAdmin {
		return store.Article{}, notFound()
	}

	record := reconcile.Record{
		ID:          existing.ID,
		Language:    language,
		Title:       existing.Title,
		Body:        existing.Body,
		Description: existing.Description,
		Fields:      existing.Fields,
	}
	result := reconcile.Reconcile(record, submission, actor.actor(), reconcile.FieldsFor(articleType))
	if len(result.Rejections) > 0 {
		return store.Article{}, domainError(http.StatusBadRequest, "VALIDATION_FAILED",
			"Some fields could not be saved", result.Rejections)
	}
	if !result.Changed {
		if s.media != nil {
			s.media.ResolveArticle(&existing)
		}
		return existing, nil
	}

	err = s.store.CommitUpdate(ctx, store.CommitParams{
		Type:        articleType,
		ID:          id,
		Assignments: result.Assignments,
		Text:        result.Text,
		AuthorID:    actor.UserID,
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.Article{}, notFound()
	}
	if err != nil {
		return store.Article{}, err
	}

	updated, err := s.store.GetArticle(ctx, articleType, id, language, actor.UserID)
	if err != nil {
		return store.Article{}, err
	}

	s.afterEdit(updated)

	if s.media != nil {
		s.media.ResolveArticle(&updated)
	}
	return updated, nil
}

// CreateArticle is two-phase: insert a bare row, then run the normal update
// path over it so the first revision and the authorship row land exactly like
// any other edit.
func (s *Service) CreateArticle(ctx context.Context, articleType, language string, actor Session, submission reconcile.Submission) (store.Article, error) {
	if err := validArticleType(articleType); err != nil {
		return store.Article{}, err
	}

	title := submittedString(submission, "title")
	if title == "" {
		return store.Article{}, domainError(http.StatusBadRequest, "TITLE_REQUIRED", "A title is required", nil)
	}
	// Older clients send the body under "summary".
	if _, ok := submission["body"]; !ok {
		if raw, ok := submission["summary"]; ok {
			submission["body"] = raw
		}
	}

	id, err := s.store.CreateArticle(ctx, articleType, language)
	if err != nil {
		return store.Article{}, err
	}
	return s.UpdateArticle(ctx, articleType, id, language, actor, submission)
}

func submittedString(submission reconcile.Submission, key string) string {
	raw, ok := submission[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

// afterEdit fans the committed row out to the read paths: the article cache
// is invalidated and both search backends are refreshed, best effort.
func (s *Service) afterEdit(article store.Article) {
	if s.cache != nil {
		s.cache.Invalidate(context.Background(), article.Type, article.ID)
	}
	if s.search != nil {
		s.search.IndexArticle(searchRecord(article))
		s.search.RefreshView()
	}
}

func searchRecord(article store.Article) search.Record {
	rec := search.Record{
		Key:         search.RecordKey(article.Type, article.ID),
		ID:          article.ID,
		Type:        article.Type,
		Title:       article.Title,
		Description: article.Description,
		Body:        article.Body,
		Featured:    boolField(article, "featured"),
		Hidden:      boolField(article, "hidden"),
		UpdatedDate: article.UpdatedDate,
	}
	if location, ok := article.Fields["location_name"]; ok && location.Kind == reconcile.KindText {
		rec.LocationName = location.Text
	}
	if tags, ok := article.Fields["tags"]; ok {
		rec.Tags = tags.Keys
	}
	if photos, ok := article.Fields["photos"]; ok && len(photos.Media) > 0 {
		rec.PhotoURL = photos.Media[0].URL
	}
	return rec
}

func (s *Service) ListTitles(ctx context.Context, articleType, language string) ([]store.TitleRef, error) {
	if err := validArticleType(articleType); err != nil {
		return nil, err
	}
	titles, err := s.store.ListTitles(ctx, articleType, language)
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []store.TitleRef{}
	}
	return titles, nil
}

// ListAuthors returns the edit history of one article, subject to the same
// visibility rule as the article itself.
func (s *Service) ListAuthors(ctx context.Context, articleType string, id int64, language string, viewer *Session) ([]store.Author, error) {
	if _, err := s.GetArticle(ctx, articleType, id, language, viewer); err != nil {
		return nil, err
	}
	authors, err := s.store.ListAuthors(ctx, id)
	if err != nil {
		return nil, err
	}
	if authors == nil {
		authors = []store.Author{}
	}
	return authors, nil
}

// ListVersions returns the localized text history of one article.
func (s *Service) ListVersions(ctx context.Context, articleType string, id int64, language string, viewer *Session) ([]store.LocalizedText, error) {
	if _, err := s.GetArticle(ctx, articleType, id, language, viewer); err != nil {
		return nil, err
	}
	revisions, err := s.store.ListTextRevisions(ctx, id, language)
	if err != nil {
		return nil, err
	}
	if revisions == nil {
		revisions = []store.LocalizedText{}
	}
	return revisions, nil
}

// Search

func (s *Service) Search(q search.Query) search.Response {
	return s.search.Search(q)
}

// Bookmarks

func (s *Service) AddBookmark(ctx context.Context, actor Session, articleType string, thingID int64, language string) error {
	// Resolves visibility too: you cannot bookmark what you cannot see.
	if _, err := s.GetArticle(ctx, articleType, thingID, language, &actor); err != nil {
		return err
	}
	return s.store.AddBookmark(ctx, actor.UserID, thingID, articleType)
}

func (s *Service) RemoveBookmark(ctx context.Context, actor Session, thingID int64) error {
	return s.store.RemoveBookmark(ctx, actor.UserID, thingID)
}

// Users

// UserProfile assembles the public profile: identity, authored articles, and
// (for the owner or an admin) the email and bookmark list.
func (s *Service) UserProfile(ctx context.Context, userID int64, language string, viewer *Session) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}

	isSelf := viewer != nil && viewer.UserID == user.ID
	isAdmin := viewer != nil && viewer.IsAdmin
	if user.Hidden && !isSelf && !isAdmin {
		return nil, notFound()
	}

	authored, err := s.store.AuthoredArticles(ctx, user.ID, language)
	if err != nil {
		return nil, err
	}
	if authored == nil {
		authored = []store.ArticleSummary{}
	}

	profile := map[string]any{
		"id":          user.ID,
		"name":        user.Name,
		"bio":         user.Bio,
		"picture_url": user.PictureURL,
		"location":    user.Location,
		"language":    user.Language,
		"join_date":   user.JoinDate,
		"is_admin":    user.IsAdmin,
		"articles":    authored,
	}

	if isSelf || isAdmin {
		profile["email"] = user.Email
		bookmarks, err := s.store.BookmarkedArticles(ctx, user.ID, language)
		if err != nil {
			return nil, err
		}
		if bookmarks == nil {
			bookmarks = []store.ArticleSummary{}
		}
		profile["bookmarks"] = bookmarks
	}
	return profile, nil
}

func (s *Service) UpdateUserProfile(ctx context.Context, actor Session, userID int64, input UserProfileInput) error {
	if actor.UserID != userID && !actor.IsAdmin {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound()
	}
	if err != nil {
		return err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return domainError(http.StatusBadRequest, "NAME_REQUIRED", "Name cannot be empty", nil)
		}
		user.Name = name
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.PictureURL != nil {
		user.PictureURL = *input.PictureURL
	}
	if input.Location != nil {
		user.Location = *input.Location
	}
	if input.Language != nil && *input.Language != "" {
		user.Language = *input.Language
	}

	return s.store.UpdateUserProfile(ctx, user)
}

// Media

// PresignUpload issues a direct-upload URL under the caller's own prefix.
func (s *Service) PresignUpload(ctx context.Context, actor Session, filename string) (string, string, error) {
	if s.media == nil {
		return "", "", domainError(http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Uploads are not configured", nil)
	}
	base := path.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == "/" {
		return "", "", domainError(http.StatusBadRequest, "FILENAME_REQUIRED", "A filename is required", nil)
	}
	objectName := fmt.Sprintf("uploads/%d/%s-%s", actor.UserID, util.NewID(""), base)
	uploadURL, err := s.media.PresignUpload(ctx, objectName, 15*time.Minute)
	if err != nil {
		return "", "", fmt.Errorf("presign upload: %w", err)
	}
	return uploadURL, objectName, nil
}
