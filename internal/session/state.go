package session

// State is a node of the practice state machine.
type State int

const (
	SelectingSentence State = iota
	Synthesizing
	AwaitingRecording
	Transcribing
	Assessing
	ReportingFeedback
	Terminated
)

func (s State) String() string {
	switch s {
	case SelectingSentence:
		return "selecting_sentence"
	case Synthesizing:
		return "synthesizing"
	case AwaitingRecording:
		return "awaiting_recording"
	case Transcribing:
		return "transcribing"
	case Assessing:
		return "assessing"
	case ReportingFeedback:
		return "reporting_feedback"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
