// Package handlers is made to handle requests
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"picstego/config"
	"picstego/cover"
	"picstego/imageio"
	"picstego/middleware"
	"picstego/models"
	"picstego/service"
	"picstego/session"
	"picstego/stego"
)

const Version = "1.0.0"

type StegoHandler struct {
	service  *service.Service
	sessions *session.Store
	cfg      config.Config
	logger   *zap.Logger
}

func NewStegoHandler(svc *service.Service, sessions *session.Store, cfg config.Config, logger *zap.Logger) *StegoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StegoHandler{
		service:  svc,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Message: "Steganography API is running",
		Version: Version,
	})
}

func (h *StegoHandler) Capacity(c *gin.Context) {
	data, _, ok := h.readImage(c, "image")
	if !ok {
		return
	}

	res, err := h.service.Capacity(data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *StegoHandler) EmbedMessage(c *gin.Context) {
	data, filename, ok := h.readImage(c, "image")
	if !ok {
		return
	}

	message, ok := h.readMessage(c)
	if !ok {
		return
	}

	format, ok := h.outputFormat(c)
	if !ok {
		return
	}

	result, err := h.service.Embed(data, filename, message, format)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sendImage(c, result)
}

func (h *StegoHandler) ExtractMessage(c *gin.Context) {
	data, _, ok := h.readImage(c, "image")
	if !ok {
		return
	}

	message, meta, err := h.service.Extract(data)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ExtractResponse{
		Success:       true,
		Message:       "Message extracted",
		SecretMessage: message,
		Width:         meta.Width,
		Height:        meta.Height,
	})
}

// CreateSession parks a cover until its message arrives.
func (h *StegoHandler) CreateSession(c *gin.Context) {
	data, filename, ok := h.readImage(c, "image")
	if !ok {
		return
	}

	buf, _, err := h.service.Decoder().Decode(data)
	if err != nil {
		h.fail(c, err)
		return
	}

	id, err := h.sessions.Create(buf, filename)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("session created",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("session_id", id),
	)
	c.JSON(http.StatusCreated, models.SessionResponse{
		Success:         true,
		SessionID:       id,
		ExpiresIn:       int(h.sessions.TTL().Seconds()),
		MaxMessageBytes: stego.MaxMessageBytes(buf),
	})
}

// SessionMessage embeds the posted message into the session's cover and
// closes the session.
func (h *StegoHandler) SessionMessage(c *gin.Context) {
	message, ok := h.readMessage(c)
	if !ok {
		return
	}

	format, ok := h.outputFormat(c)
	if !ok {
		return
	}

	sess, err := h.sessions.Take(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.service.EmbedBuffer(sess.Cover, sess.Filename, message, format)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sendImage(c, result)
}

func (h *StegoHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RandomCover serves a generated PNG for users without an image of their own.
func (h *StegoHandler) RandomCover(c *gin.Context) {
	cfg := cover.Config{Color: c.Query("color")}
	for name, dst := range map[string]*int{"width": &cfg.Width, "height": &cfg.Height, "noise": &cfg.Noise} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, fmt.Sprintf("%s must be an integer", name))
			return
		}
		*dst = v
	}
	if raw := c.Query("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.badRequest(c, "seed must be an integer")
			return
		}
		cfg.Seed = seed
	}

	if err := h.checkCoverSize(cfg); err != nil {
		h.fail(c, err)
		return
	}

	buf, err := cover.Generate(cfg)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	data, err := imageio.EncodeBytes(buf, imageio.FormatPNG)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=cover.png")
	c.Header("X-Stego-Capacity", strconv.Itoa(stego.Capacity(buf)))
	c.Data(http.StatusOK, imageio.FormatPNG.ContentType(), data)
}

// checkCoverSize applies the decode pixel limit to generated covers too.
func (h *StegoHandler) checkCoverSize(cfg cover.Config) error {
	w, ht := cfg.Width, cfg.Height
	if w == 0 {
		w = cover.DefaultWidth
	}
	if ht == 0 {
		ht = cover.DefaultHeight
	}
	if limit := h.cfg.MaxImagePixels; limit > 0 && w > 0 && ht > 0 && w*ht > limit {
		return fmt.Errorf("%w: %dx%d cover is above %d pixels", imageio.ErrTooLarge, w, ht, limit)
	}
	return nil
}

func (h *StegoHandler) readImage(c *gin.Context, field string) ([]byte, string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	file, header, err := c.Request.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond(c, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("Upload exceeds %d bytes", h.cfg.MaxUploadBytes))
			return nil, "", false
		}
		h.badRequest(c, "Image file is required")
		return nil, "", false
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" && !IsImageContentType(ct) {
		h.respond(c, http.StatusUnsupportedMediaType, stego.KindInputFormat.String(), "File must be an image")
		return nil, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, stego.Wrap(stego.KindProcessing, "upload", fmt.Errorf("failed to read image file: %w", err)))
		return nil, "", false
	}
	return data, header.Filename, true
}

func (h *StegoHandler) readMessage(c *gin.Context) (string, bool) {
	message, ok := c.GetPostForm("message")
	if !ok {
		h.badRequest(c, "Message is required")
		return "", false
	}
	return message, true
}

func (h *StegoHandler) outputFormat(c *gin.Context) (imageio.Format, bool) {
	raw := c.PostForm("format")
	if raw == "" {
		raw = h.cfg.OutputFormat
	}
	format, err := imageio.ParseFormat(raw)
	if err != nil {
		h.badRequest(c, err.Error())
		return "", false
	}
	return format, true
}

func (h *StegoHandler) sendImage(c *gin.Context, result *models.EmbedResult) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.OutputName))

	c.Header("X-Stego-Method", "RGB LSB")
	c.Header("X-Stego-Message", "Secret message successfully embedded")
	c.Header("X-Stego-Capacity", strconv.Itoa(result.CapacityBits))
	c.Header("X-Stego-Bits", strconv.Itoa(result.FrameBits))
	c.Header("X-Stego-PSNR", imageio.FormatPSNR(result.PSNR))

	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// fail maps an error to its HTTP status and JSON body.
func (h *StegoHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	kind := stego.KindOf(err)
	switch {
	case errors.Is(err, imageio.ErrTooLarge):
		h.respond(c, http.StatusRequestEntityTooLarge, "too_large", err.Error())
		return
	case errors.Is(err, session.ErrNotFound):
		h.respond(c, http.StatusNotFound, stego.KindNotFound.String(), err.Error())
		return
	case kind == stego.KindCapacity, kind == stego.KindInvalidFrame:
		status = http.StatusUnprocessableEntity
	case kind == stego.KindInputFormat:
		status = http.StatusUnsupportedMediaType
	case kind == stego.KindNotFound:
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	h.respond(c, status, kind.String(), err.Error())
}

func (h *StegoHandler) badRequest(c *gin.Context, message string) {
	h.respond(c, http.StatusBadRequest, "bad_request", message)
}

func (h *StegoHandler) respond(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, models.StegoResponse{
		Success: false,
		Message: message,
		Kind:    kind,
	})
}

// IsImageContentType reports whether a declared upload type is an image.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
