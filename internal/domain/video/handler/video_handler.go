package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"vidhub/internal/domain/video/service"
	"vidhub/internal/pkg/middleware"
	"vidhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxUploadMemory multipart 表单内存上限，超出部分落临时文件
const maxUploadMemory = 32 << 20

type VideoHandler struct {
	service service.VideoService
}

func NewVideoHandler(s service.VideoService) *VideoHandler {
	return &VideoHandler{service: s}
}

// ListQuery 列表查询参数
type ListQuery struct {
	Owner    string `form:"owner"`
	Category string `form:"category"`
	Limit    int    `form:"limit"`
}

// Publish 上传并发布视频（multipart: video, thumbnail, title, description, category, duration）
func (h *VideoHandler) Publish(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "multipart form is required")
		return
	}

	duration := 0
	if raw := c.PostForm("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "duration must be an integer")
			return
		}
		duration = d
	}

	input := service.PublishInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Duration:    duration,
	}

	videoFile, closeVideo, err := openAsset(c, "video")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	defer closeVideo()
	input.Video = videoFile

	thumbFile, closeThumb, err := openAsset(c, "thumbnail")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	defer closeThumb()
	input.Thumbnail = thumbFile

	result, err := h.service.Publish(c.Request.Context(), middleware.CurrentIdentity(c), input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, result)
}

// ListVideos 已发布视频列表
func (h *VideoHandler) ListVideos(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	videos, err := h.service.ListVideos(c.Request.Context(), service.ListFilter{
		OwnerID:  q.Owner,
		Category: q.Category,
		Limit:    q.Limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"videos": videos})
}

// GetVideo 视频详情，可匿名访问
func (h *VideoHandler) GetVideo(c *gin.Context) {
	video, err := h.service.GetVideo(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, video)
}

// ListAllVideos 全部视频（管理员/版主）
func (h *VideoHandler) ListAllVideos(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	videos, err := h.service.ListAllVideos(c.Request.Context(), middleware.CurrentIdentity(c), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"videos": videos})
}

// openAsset 读取上传文件，字段缺失时返回 nil 由服务层校验
func openAsset(c *gin.Context, field string) (*service.Asset, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	return open(header)
}

func open(header *multipart.FileHeader) (*service.Asset, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &service.Asset{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}
