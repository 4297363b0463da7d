package conversation

// Stage is the phase of a conversation, derived from its length.
type Stage int

const (
	// StageInitial is the user's opening message.
	StageInitial Stage = iota
	// StageGathering asks follow-up questions before recommending.
	StageGathering
	// StageRecommending presents recommendations.
	StageRecommending
)

// Turn thresholds: a working history of at most initialTurns messages is
// initial, at most gatheringTurns is gathering.
const (
	initialTurns   = 1
	gatheringTurns = 5
)

func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "initial"
	case StageGathering:
		return "gathering"
	default:
		return "recommending"
	}
}

// ClassifyStage maps the working history length, including the new user
// message, to a stage.
func ClassifyStage(n int) Stage {
	switch {
	case n <= initialTurns:
		return StageInitial
	case n <= gatheringTurns:
		return StageGathering
	default:
		return StageRecommending
	}
}
