package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidhub/internal/domain/video/model"
	"vidhub/internal/domain/video/service"
	"vidhub/internal/pkg/config"
	"vidhub/internal/pkg/identity"
	"vidhub/internal/pkg/middleware"
	base "vidhub/pkg/model"
	"vidhub/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	service.VideoService
	got       service.PublishInput
	videoBody string
	viewer    identity.Identity
}

func (s *stubService) Publish(ctx context.Context, caller identity.Identity, input service.PublishInput) (*service.PublishResult, error) {
	s.got = input
	if input.Video != nil {
		b, _ := io.ReadAll(input.Video.Body)
		s.videoBody = string(b)
	}
	return &service.PublishResult{Video: &model.Video{Title: input.Title}}, nil
}

func (s *stubService) GetVideo(ctx context.Context, caller identity.Identity, id string) (*model.Video, error) {
	s.viewer = caller
	return &model.Video{BaseModel: base.BaseModel{ID: id}}, nil
}

func TestGetVideoHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.GlobalConfig.JWT.Secret = "0123456789abcdef0123456789abcdef"
	config.GlobalConfig.JWT.Expire = 1

	const videoID = "22222222-2222-2222-2222-222222222222"
	route := func(svc service.VideoService) *gin.Engine {
		r := gin.New()
		r.GET("/videos/:id", middleware.OptionalAuthMiddleware(), NewVideoHandler(svc).GetVideo)
		return r
	}

	t.Run("anonymous", func(t *testing.T) {
		svc := &stubService{}
		rec := httptest.NewRecorder()
		route(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/"+videoID, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, svc.viewer.Present())
	})

	t.Run("bearer token identifies viewer", func(t *testing.T) {
		token, _, err := utils.GenerateToken("33333333-3333-3333-3333-333333333333", string(identity.RoleModerator))
		require.NoError(t, err)

		svc := &stubService{}
		req := httptest.NewRequest(http.MethodGet, "/videos/"+videoID, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		route(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.viewer.IsStaff())
	})

	t.Run("bad token falls back to anonymous", func(t *testing.T) {
		svc := &stubService{}
		req := httptest.NewRequest(http.MethodGet, "/videos/"+videoID, nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		route(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, svc.viewer.Present())
	})
}

func TestPublishHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	caller := identity.New("11111111-1111-1111-1111-111111111111", identity.RoleViewer)

	newRequest := func(t *testing.T, fields map[string]string, withVideo bool) *http.Request {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		for k, v := range fields {
			require.NoError(t, w.WriteField(k, v))
		}
		if withVideo {
			part, err := w.CreateFormFile("video", "clip.mp4")
			require.NoError(t, err)
			_, err = part.Write([]byte("frames"))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/videos", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req
	}

	route := func(svc service.VideoService) *gin.Engine {
		r := gin.New()
		h := NewVideoHandler(svc)
		r.POST("/videos", func(c *gin.Context) {
			middleware.SetIdentity(c, caller)
			c.Next()
		}, h.Publish)
		return r
	}

	t.Run("passes form fields and file", func(t *testing.T) {
		svc := &stubService{}
		rec := httptest.NewRecorder()
		route(svc).ServeHTTP(rec, newRequest(t, map[string]string{
			"title":    "hello",
			"category": "music",
			"duration": "42",
		}, true))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "hello", svc.got.Title)
		assert.Equal(t, "music", svc.got.Category)
		assert.Equal(t, 42, svc.got.Duration)
		require.NotNil(t, svc.got.Video)
		assert.Equal(t, "clip.mp4", svc.got.Video.Filename)
		assert.Equal(t, "frames", svc.videoBody)
		assert.Nil(t, svc.got.Thumbnail)
	})

	t.Run("bad duration", func(t *testing.T) {
		rec := httptest.NewRecorder()
		route(&stubService{}).ServeHTTP(rec, newRequest(t, map[string]string{"title": "x", "duration": "long"}, true))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/videos", bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		route(&stubService{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
