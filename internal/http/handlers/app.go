package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/corboo/claire-video-generator/internal/domain"
	"github.com/corboo/claire-video-generator/internal/infra"
	"github.com/corboo/claire-video-generator/internal/pipeline"
)

// VideoGenerator runs one generation request end to end.
type VideoGenerator interface {
	Generate(ctx context.Context, script string, avatar domain.AvatarSource) (*pipeline.Video, error)
}

// App is the handler container holding request-independent collaborators.
type App struct {
	Cfg    *infra.Config
	Log    infra.Logger
	Videos VideoGenerator
}

func NewApp(cfg *infra.Config, log infra.Logger, videos VideoGenerator) *App {
	return &App{Cfg: cfg, Log: log, Videos: videos}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
