// Package pipeline sequences one video generation end to end: synthesize the
// script, upload the avatar image and the audio, submit a talk job, wait for
// it, and download the result.
package pipeline

import (
	"context"

	"github.com/corboo/claire-video-generator/internal/domain"
	"github.com/corboo/claire-video-generator/internal/infra"
	"github.com/corboo/claire-video-generator/internal/providers/did"
)

// Filenames used for the assets of one request.
const (
	defaultAvatarFilename = "avatar.png"
	audioFilename         = "speech.mp3"

	// VideoFilename is the download name handed to the caller.
	VideoFilename = "talking-avatar.mp4"
)

// Synthesizer converts script text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// TalkService covers the avatar-video provider operations the pipeline needs.
type TalkService interface {
	Upload(ctx context.Context, data []byte, kind did.AssetKind, fieldName, filename string) (string, error)
	GenerateTalk(ctx context.Context, imageURL, audioURL string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// AvatarStore supplies the bundled default avatar bytes.
type AvatarStore interface {
	DefaultAvatar() ([]byte, error)
}

// Video is the result of one generation request.
type Video struct {
	Data []byte
	URL  string
	MIME string
	Name string
}

// Generator drives the full pipeline. It holds no per-request state and is
// safe to share across requests.
type Generator struct {
	tts     Synthesizer
	talks   TalkService
	avatars AvatarStore
	logger  infra.Logger
}

// New wires a Generator from its collaborators.
func New(tts Synthesizer, talks TalkService, avatars AvatarStore, logger infra.Logger) *Generator {
	return &Generator{tts: tts, talks: talks, avatars: avatars, logger: logger}
}

// Generate runs the pipeline for one script and avatar source. Steps run
// strictly in order and the first failure aborts the rest; assets already
// uploaded to the provider are left as-is.
func (g *Generator) Generate(ctx context.Context, script string, avatar domain.AvatarSource) (*Video, error) {
	if err := domain.ValidateScript(script); err != nil {
		return nil, err
	}
	if err := avatar.Validate(); err != nil {
		return nil, err
	}

	g.logger.Info().Int("script_chars", len(script)).Bool("custom_avatar", avatar.IsCustom()).Msg("generating video")

	audio, err := g.tts.Synthesize(ctx, script)
	if err != nil {
		return nil, &StepError{Step: StepSynthesize, Err: err}
	}

	imageBytes, imageName, err := g.resolveAvatar(avatar)
	if err != nil {
		return nil, &StepError{Step: StepResolveAvatar, Err: err}
	}

	imageURL, err := g.talks.Upload(ctx, imageBytes, did.AssetImage, "image", imageName)
	if err != nil {
		return nil, &StepError{Step: StepUploadImage, Err: err}
	}

	audioURL, err := g.talks.Upload(ctx, audio, did.AssetAudio, "audio", audioFilename)
	if err != nil {
		return nil, &StepError{Step: StepUploadAudio, Err: err}
	}

	videoURL, err := g.talks.GenerateTalk(ctx, imageURL, audioURL)
	if err != nil {
		return nil, &StepError{Step: StepCreateTalk, Err: err}
	}

	data, err := g.talks.Download(ctx, videoURL)
	if err != nil {
		return nil, &StepError{Step: StepDownload, Err: err}
	}

	g.logger.Info().Int("bytes", len(data)).Str("url", videoURL).Msg("video ready")
	return &Video{Data: data, URL: videoURL, MIME: "video/mp4", Name: VideoFilename}, nil
}

// resolveAvatar dispatches the tagged avatar source once, at pipeline entry.
func (g *Generator) resolveAvatar(avatar domain.AvatarSource) ([]byte, string, error) {
	if avatar.IsCustom() {
		data, filename := avatar.Custom()
		if filename == "" {
			filename = defaultAvatarFilename
		}
		return data, filename, nil
	}
	data, err := g.avatars.DefaultAvatar()
	if err != nil {
		return nil, "", err
	}
	return data, defaultAvatarFilename, nil
}
