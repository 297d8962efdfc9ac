package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corboo/claire-video-generator/internal/domain"
	"github.com/corboo/claire-video-generator/internal/infra"
	"github.com/corboo/claire-video-generator/internal/providers/did"
	"github.com/corboo/claire-video-generator/internal/providers/hume"
	"github.com/corboo/claire-video-generator/internal/storage"
)

// TestGenerateEndToEnd drives the real provider clients against one stub
// server that plays both providers: synthesize, two uploads, talk creation,
// a few pending polls, then done and the final download.
func TestGenerateEndToEnd(t *testing.T) {
	videoBytes := []byte("final-mp4-bytes")
	var mu sync.Mutex
	var calls []string
	record := func(name string) {
		mu.Lock()
		calls = append(calls, name)
		mu.Unlock()
	}
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v0/tts/file", func(w http.ResponseWriter, r *http.Request) {
		record("synthesize")
		w.Write([]byte("mp3-bytes"))
	})
	mux.HandleFunc("POST /images", func(w http.ResponseWriter, r *http.Request) {
		record("upload-image")
		json.NewEncoder(w).Encode(map[string]string{"url": "https://s3.example/avatar.png"})
	})
	mux.HandleFunc("POST /audios", func(w http.ResponseWriter, r *http.Request) {
		record("upload-audio")
		json.NewEncoder(w).Encode(map[string]string{"url": "https://s3.example/speech.mp3"})
	})
	mux.HandleFunc("POST /talks", func(w http.ResponseWriter, r *http.Request) {
		record("create-talk")
		json.NewEncoder(w).Encode(map[string]string{"id": "tlk_e2e", "status": did.StatusCreated})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("GET /talks/tlk_e2e", func(w http.ResponseWriter, r *http.Request) {
		talk := map[string]string{"id": "tlk_e2e", "status": did.StatusPending}
		if polls.Add(1) >= 2 {
			talk["status"] = did.StatusDone
			talk["result_url"] = srv.URL + "/result/out.mp4"
		}
		json.NewEncoder(w).Encode(talk)
	})
	mux.HandleFunc("GET /result/out.mp4", func(w http.ResponseWriter, r *http.Request) {
		record("download")
		w.Write(videoBytes)
	})

	ttsClient, err := hume.NewClient(hume.Options{APIKey: "hume-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("hume client: %v", err)
	}
	didClient, err := did.NewClient(did.Options{APIKey: "did-key", BaseURL: srv.URL, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("did client: %v", err)
	}

	assetsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(assetsDir, storage.DefaultAvatarName), []byte("bundled-png"), 0o644); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	avatars, err := storage.NewAssetStore(assetsDir)
	if err != nil {
		t.Fatalf("asset store: %v", err)
	}

	gen := New(ttsClient, didClient, avatars, infra.NopLogger())
	video, err := gen.Generate(context.Background(), "Hello world", domain.DefaultAvatar())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(video.Data) != string(videoBytes) {
		t.Fatalf("video bytes = %q", video.Data)
	}
	if video.URL != srv.URL+"/result/out.mp4" {
		t.Fatalf("video url = %q", video.URL)
	}

	want := "synthesize,upload-image,upload-audio,create-talk,download"
	mu.Lock()
	got := strings.Join(calls, ",")
	mu.Unlock()
	if got != want {
		t.Fatalf("call order = %s, want %s", got, want)
	}
	if polls.Load() != 2 {
		t.Fatalf("polls = %d, want 2", polls.Load())
	}
}
