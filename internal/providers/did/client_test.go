package did

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:       "dGVzdDprZXk=",
		BaseURL:      baseURL,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestMIMEType(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"avatar.png", "image/png"},
		{"avatar.PNG", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"speech.mp3", "audio/mpeg"},
		{"speech.wav", "audio/wav"},
		{"file.xyz", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := MIMEType(tc.filename); got != tc.want {
			t.Fatalf("MIMEType(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestUploadImage(t *testing.T) {
	var gotPath, gotAuth, gotField, gotFilename, gotPartType string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		for field, headers := range r.MultipartForm.File {
			gotField = field
			gotFilename = headers[0].Filename
			gotPartType = headers[0].Header.Get("Content-Type")
			f, _ := headers[0].Open()
			gotData, _ = io.ReadAll(f)
			f.Close()
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://s3.example/avatar.png"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	url, err := client.Upload(context.Background(), []byte{1, 2, 3}, AssetImage, "image", "avatar.png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://s3.example/avatar.png" {
		t.Fatalf("url = %q", url)
	}
	if gotPath != "/images" {
		t.Fatalf("path = %q, want /images", gotPath)
	}
	if gotAuth != "Basic dGVzdDprZXk=" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotField != "image" || gotFilename != "avatar.png" {
		t.Fatalf("field/filename = %q/%q", gotField, gotFilename)
	}
	if gotPartType != "image/png" {
		t.Fatalf("part content type = %q", gotPartType)
	}
	if len(gotData) != 3 {
		t.Fatalf("payload = %v", gotData)
	}
}

func TestUploadAudioUsesAudiosEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"url": "https://s3.example/speech.mp3"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, err := client.Upload(context.Background(), []byte{1}, AssetAudio, "audio", "speech.mp3"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotPath != "/audios" {
		t.Fatalf("path = %q, want /audios", gotPath)
	}
}

func TestUploadSurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"kind":"AuthorizationError","description":"bad credentials"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Upload(context.Background(), []byte{1}, AssetImage, "image", "avatar.png")
	if err == nil {
		t.Fatalf("expected error on 401")
	}
	if !strings.Contains(err.Error(), "bad credentials") {
		t.Fatalf("error missing provider description: %v", err)
	}
}

func TestCreateTalkPayload(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		json.NewEncoder(w).Encode(map[string]string{"id": "tlk_123", "status": StatusCreated})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	id, err := client.CreateTalk(context.Background(), "https://s3.example/a.png", "https://s3.example/s.mp3")
	if err != nil {
		t.Fatalf("create talk: %v", err)
	}
	if id != "tlk_123" {
		t.Fatalf("id = %q", id)
	}
	if captured["source_url"] != "https://s3.example/a.png" {
		t.Fatalf("source_url = %v", captured["source_url"])
	}
	script, ok := captured["script"].(map[string]any)
	if !ok {
		t.Fatalf("script missing: %v", captured)
	}
	if script["type"] != "audio" || script["audio_url"] != "https://s3.example/s.mp3" {
		t.Fatalf("script = %v", script)
	}
}

func TestAwaitTalkDone(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		talk := map[string]string{"id": "tlk_123", "status": StatusPending}
		if n >= 3 {
			talk["status"] = StatusDone
			talk["result_url"] = "https://cdn.example/out.mp4"
		}
		json.NewEncoder(w).Encode(talk)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	url, err := client.AwaitTalk(context.Background(), "tlk_123")
	if err != nil {
		t.Fatalf("await talk: %v", err)
	}
	if url != "https://cdn.example/out.mp4" {
		t.Fatalf("result url = %q", url)
	}
	if polls.Load() != 3 {
		t.Fatalf("polls = %d, want 3", polls.Load())
	}
}

func TestAwaitTalkProviderErrorShortCircuits(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		fmt.Fprint(w, `{"id":"tlk_123","status":"error","error":{"kind":"RenderError","description":"face not detected"}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.AwaitTalk(context.Background(), "tlk_123")
	if err == nil {
		t.Fatalf("expected provider error")
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("provider error reported as timeout: %v", err)
	}
	if !strings.Contains(err.Error(), "face not detected") {
		t.Fatalf("error missing provider payload: %v", err)
	}
	if polls.Load() != 1 {
		t.Fatalf("polls = %d, want 1", polls.Load())
	}
}

func TestAwaitTalkTimesOutAfterSixtyPolls(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"id": "tlk_123", "status": StatusPending})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.AwaitTalk(context.Background(), "tlk_123")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if polls.Load() != DefaultPollAttempts {
		t.Fatalf("polls = %d, want %d", polls.Load(), DefaultPollAttempts)
	}
}

func TestAwaitTalkHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "tlk_123", "status": StatusPending})
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL, PollInterval: time.Hour})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.AwaitTalk(ctx, "tlk_123"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestDownload(t *testing.T) {
	video := []byte("mp4-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("download must not send auth header")
		}
		w.Write(video)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	data, err := client.Download(context.Background(), srv.URL+"/out.mp4")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != string(video) {
		t.Fatalf("video bytes = %q", data)
	}
}
