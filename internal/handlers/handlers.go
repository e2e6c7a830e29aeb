package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/faceglow/internal/analysis"
	"github.com/example/faceglow/internal/middleware"
	"github.com/example/faceglow/internal/usecase"
	"github.com/example/faceglow/internal/vision"
	"github.com/example/faceglow/internal/web"
)

// DefaultMaxBodyBytes bounds request bodies. A 10MB photo grows by a third
// once base64 encoded.
const DefaultMaxBodyBytes = 15 << 20

// Error messages returned by the JSON API.
const (
	ErrMsgMissingImage   = "Imagem não fornecida"
	ErrMsgAnalysisFailed = "Erro ao processar a análise facial"
	ErrMsgTooLarge       = "Imagem muito grande"
)

// Options configures RegisterRoutes.
type Options struct {
	MaxBodyBytes int64
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
}

// analyzeRequest keeps image untyped: only a string is forwarded, but a
// present non-string value is a processing failure rather than a missing image.
type analyzeRequest struct {
	Image any `json:"image"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.AnalysisUseCase, opts Options) {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	router.SetHTMLTemplate(web.Templates())
	router.StaticFS("/static", web.Static())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": uc.Provider()})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, web.IndexTemplate, web.Page{})
	})

	router.POST("/api/analyze-face", limitBody(opts.MaxBodyBytes), func(c *gin.Context) {
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if isTooLarge(err) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ErrMsgTooLarge})
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrMsgMissingImage})
			return
		}

		image, ok := req.Image.(string)
		if !ok {
			if isBlank(req.Image) {
				c.JSON(http.StatusBadRequest, gin.H{"error": ErrMsgMissingImage})
				return
			}
			_ = c.Error(fmt.Errorf("image field has type %T", req.Image))
			c.JSON(http.StatusInternalServerError, gin.H{"error": ErrMsgAnalysisFailed})
			return
		}

		raw, err := uc.AnalyzeFace(c.Request.Context(), middleware.GetRequestID(c), image)
		switch {
		case errors.Is(err, usecase.ErrMissingImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrMsgMissingImage})
		case err != nil:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": ErrMsgAnalysisFailed})
		default:
			c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		}
	})

	// Form fallback for browsers without JavaScript.
	router.POST("/analyze", limitBody(opts.MaxBodyBytes), func(c *gin.Context) {
		image, err := formImage(c)
		if err != nil {
			if isTooLarge(err) {
				c.HTML(http.StatusRequestEntityTooLarge, web.IndexTemplate, web.Page{Error: web.MessageAnalysisFailed})
				return
			}
			_ = c.Error(err)
			c.HTML(http.StatusBadRequest, web.IndexTemplate, web.Page{Error: web.MessageMissingImage})
			return
		}

		raw, err := uc.AnalyzeFace(c.Request.Context(), middleware.GetRequestID(c), image)
		if errors.Is(err, usecase.ErrMissingImage) {
			c.HTML(http.StatusBadRequest, web.IndexTemplate, web.Page{Error: web.MessageMissingImage})
			return
		}
		var result *analysis.AnalysisResult
		if err == nil {
			result, err = analysis.Decode(raw)
		}
		if err != nil {
			_ = c.Error(err)
			c.HTML(http.StatusInternalServerError, web.IndexTemplate, web.Page{Image: image, Error: web.MessageAnalysisFailed})
			return
		}
		c.HTML(http.StatusOK, web.IndexTemplate, web.Page{Image: image, Result: result})
	})
}

// isBlank reports whether a decoded JSON value counts as no image at all:
// null, false or zero.
func isBlank(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case json.Number:
		return v == "0"
	default:
		return false
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// formImage returns the uploaded file as a data URL, or the image_data field
// carried over from a previous attempt. It returns an empty string and no
// error when neither is present.
func formImage(c *gin.Context) (string, error) {
	file, err := c.FormFile("image")
	switch {
	case err == nil:
		return fileDataURL(file)
	case errors.Is(err, http.ErrMissingFile):
		return c.PostForm("image_data"), nil
	default:
		return "", err
	}
}

func fileDataURL(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return vision.Image{MIMEType: mimeType, Data: data}.DataURL(), nil
}
