package domain

// Question is a multiple-choice question. CorrectAnswer is always one of Options.
type Question struct {
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
}

// HasOption reports whether o is one of the question's options.
func (q Question) HasOption(o string) bool {
	for _, opt := range q.Options {
		if opt == o {
			return true
		}
	}
	return false
}

// ScoreRecord is the persisted outcome of one completed quiz session.
type ScoreRecord struct {
	UserName string `json:"userName"`
	Points   int    `json:"points"`
}

// SessionResult is the terminal outcome of a quiz session, handed to the leaderboard.
type SessionResult struct {
	SessionID string
	UserName  string
	Points    int
}

// Leaderboard is all score records sorted by points in descending order.
type Leaderboard struct {
	Collection string
	Entries    []ScoreRecord
}

// UserIdentity is what the quiz needs to know about the signed-in user.
type UserIdentity struct {
	UserID      string
	DisplayName string
}
