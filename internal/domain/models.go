package domain

import "time"

// Question is a single multiple-choice question. The correct answer is always
// one of Options. Questions are immutable once loaded from the bank.
type Question struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	SubCategory string   `json:"subCategory,omitempty"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
}

// Quiz is an ordered question set with presentation metadata.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Duration  int        `json:"duration"` // seconds
	Questions []Question `json:"questions"`
}

// Result is the immutable scored summary of one finished attempt. The full
// question list and answer map are retained so the attempt can be reviewed
// later.
type Result struct {
	ID             string             `json:"id,omitempty"`
	QuizID         string             `json:"quizId"`
	QuizTitle      string             `json:"quizTitle"`
	SubCategory    string             `json:"subCategory,omitempty"`
	Score          int                `json:"score"`
	Correct        int                `json:"correct"`
	Incorrect      int                `json:"incorrect"`
	Skipped        int                `json:"skipped"`
	Total          int                `json:"total"`
	CategoryScores map[string]float64 `json:"categoryScores"`
	Questions      []Question         `json:"questions"`
	Answers        map[string]string  `json:"answers"`
	Duration       int                `json:"durationSeconds"`
	TimedOut       bool               `json:"timedOut"`
	CompletedAt    time.Time          `json:"completedAt"`
}

// Missed returns the questions the user answered incorrectly, paired with
// what they picked. Skipped questions are not missed questions.
func (r Result) Missed() []MissedQuestion {
	var missed []MissedQuestion
	for _, q := range r.Questions {
		picked, ok := r.Answers[q.ID]
		if !ok || picked == q.Answer {
			continue
		}
		missed = append(missed, MissedQuestion{
			QuestionText:  q.Text,
			UserAnswer:    picked,
			CorrectAnswer: q.Answer,
			Category:      q.Category,
		})
	}
	return missed
}

// Profile is the denormalized slice of a user's profile that gets copied
// onto leaderboard entries and feedback requests at submission time.
type Profile struct {
	DisplayName string `json:"displayName"`
	State       string `json:"state"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Age         int    `json:"age,omitempty"`
}

// LeaderboardEntry is the cumulative running total for one (quiz, user)
// pair. The total only grows as new attempts are merged in.
type LeaderboardEntry struct {
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	State       string    `json:"state,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Score       int       `json:"score"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MissedQuestion is one entry of the feedback request payload.
type MissedQuestion struct {
	QuestionText  string `json:"questionText"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Category      string `json:"category"`
}

// FeedbackRequest is the structured payload sent to the text-generation
// collaborator after a finished attempt.
type FeedbackRequest struct {
	UserName       string             `json:"userName"`
	UserAge        int                `json:"userAge"`
	UserState      string             `json:"userState"`
	Correct        int                `json:"correctAnswers"`
	Incorrect      int                `json:"incorrectAnswers"`
	Skipped        int                `json:"skippedQuestions"`
	Total          int                `json:"totalQuestions"`
	CategoryScores map[string]float64 `json:"categoryScores"`
	Missed         []MissedQuestion   `json:"missedQuestions"`
}

// QuestionFeedback is a per-question explanation from the collaborator.
type QuestionFeedback struct {
	QuestionText string `json:"questionText"`
	Explanation  string `json:"explanation"`
	SearchQuery  string `json:"searchQuery"`
}

// Feedback is the collaborator's response.
type Feedback struct {
	Overall     string             `json:"overallFeedback"`
	PerQuestion []QuestionFeedback `json:"perQuestion,omitempty"`
}
