package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/corboo/claire-video-generator/internal/domain"
	"github.com/corboo/claire-video-generator/internal/middleware"
	"github.com/corboo/claire-video-generator/internal/pipeline"
	"github.com/corboo/claire-video-generator/internal/providers/did"
)

// VideosGenerate accepts a multipart form with a "script" field and an
// optional "avatar" image file, runs the pipeline synchronously, and streams
// the finished MP4 back. Without an avatar file the bundled default is used.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.Cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	script := strings.TrimSpace(r.FormValue("script"))

	avatar := domain.DefaultAvatar()
	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		if !allowedAvatarFilename(header.Filename) {
			a.error(w, http.StatusBadRequest, "bad_request", "avatar must be a PNG or JPEG image")
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "failed to read avatar upload")
			return
		}
		avatar = domain.CustomAvatar(data, header.Filename)
	}

	video, err := a.Videos.Generate(r.Context(), script, avatar)
	if err != nil {
		a.renderGenerateError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", video.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", video.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(video.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(video.Data)
}

// renderGenerateError maps the pipeline error taxonomy onto HTTP statuses.
// Every failure is user-visible; nothing is retried or recovered silently.
func (a *App) renderGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidScript), errors.Is(err, domain.ErrNoAvatarSource):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, did.ErrTimeout):
		a.error(w, http.StatusBadGateway, "timeout", "timed out waiting for video generation")
	case errors.Is(err, context.Canceled):
		// Caller went away; there is nobody left to answer.
	default:
		rid := middleware.RequestIDFromContext(r.Context())
		var step *pipeline.StepError
		if errors.As(err, &step) && step.Step != pipeline.StepResolveAvatar {
			a.Log.Error().Err(err).Str("request_id", rid).Str("step", step.Step).Msg("video generation failed")
			a.error(w, http.StatusBadGateway, "provider_error", err.Error())
			return
		}
		a.Log.Error().Err(err).Str("request_id", rid).Msg("video generation failed")
		a.error(w, http.StatusInternalServerError, "internal", "video generation failed")
	}
}

func allowedAvatarFilename(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
