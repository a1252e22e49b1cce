package domain

type RecognitionStatus string

const (
	StatusSuccess     RecognitionStatus = "success"
	StatusNoMatch     RecognitionStatus = "no_match"
	StatusAudioFailed RecognitionStatus = "audio_failed"
)

// RecognitionResult is what the engine delivers for one utterance.
// Properties maps a tag name to its values; only the first value counts.
type RecognitionResult struct {
	ID            string
	Status        RecognitionStatus
	Text          string
	ConstraintTag string
	Properties    map[string][]string
}

// Utterance is one unit of input pulled from a source. Exactly one of Audio,
// Text or Properties is expected to be set; Properties carries a result that
// an external recognizer already interpreted.
type Utterance struct {
	ID         string
	Audio      []byte
	Text       string
	Properties map[string][]string
}

func (u Utterance) IsInterpreted() bool {
	return u.Properties != nil
}

func (u Utterance) IsText() bool {
	return u.Properties == nil && len(u.Audio) == 0
}
