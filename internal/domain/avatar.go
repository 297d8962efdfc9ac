package domain

// AvatarSource is a tagged variant selecting the avatar image for one
// generation request: either the bundled default asset or caller-supplied
// bytes. Exactly one source is active per request.
type AvatarSource struct {
	custom   bool
	data     []byte
	filename string
}

// DefaultAvatar selects the bundled default avatar asset.
func DefaultAvatar() AvatarSource {
	return AvatarSource{}
}

// CustomAvatar selects a caller-supplied image payload.
func CustomAvatar(data []byte, filename string) AvatarSource {
	return AvatarSource{custom: true, data: data, filename: filename}
}

// IsCustom reports whether the source carries caller-supplied bytes.
func (s AvatarSource) IsCustom() bool {
	return s.custom
}

// Custom returns the caller-supplied payload. Only meaningful when IsCustom
// is true.
func (s AvatarSource) Custom() (data []byte, filename string) {
	return s.data, s.filename
}

// Validate rejects a custom source with no payload.
func (s AvatarSource) Validate() error {
	if s.custom && len(s.data) == 0 {
		return ErrNoAvatarSource
	}
	return nil
}
