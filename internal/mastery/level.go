package mastery

// Level is a coarse label for a mastery score, used for display.
type Level string

const (
	LevelNew        Level = "new"
	LevelLearning   Level = "learning"
	LevelProficient Level = "proficient"
	LevelMastered   Level = "mastered"
)

// LevelFor maps a score and attempt count to a Level. Topics with no
// attempts are always LevelNew.
func LevelFor(score float64, attempts int) Level {
	switch {
	case attempts == 0:
		return LevelNew
	case score > 0.85:
		return LevelMastered
	case score > 0.6:
		return LevelProficient
	default:
		return LevelLearning
	}
}
