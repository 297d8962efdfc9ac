package pipeline

// Pipeline step names used for failure attribution.
const (
	StepSynthesize    = "synthesize voice"
	StepResolveAvatar = "resolve avatar"
	StepUploadImage   = "upload avatar"
	StepUploadAudio   = "upload audio"
	StepCreateTalk    = "create talk"
	StepDownload      = "download video"
)

// StepError attributes a failure to the pipeline step it happened in. The
// wrapped error keeps the provider's status and body intact.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}
