package domain

import "time"

// Category is the subject area of a question, used for per-category
// scoring and progress tallies.
type Category string

const (
	CategorySigns Category = "signs"
	CategoryRules Category = "rules"
)

// Mode identifies what kind of session is being taken.
type Mode string

const (
	ModeSignsPractice Mode = "signs_practice"
	ModeRulesPractice Mode = "rules_practice"
	ModeSimulation    Mode = "simulation"
	ModeReview        Mode = "review"
)

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusLoading    Status = "loading"
	StatusActive     Status = "active"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Section describes the composition of the loaded question set.
type Section string

const (
	SectionSigns Section = "signs"
	SectionRules Section = "rules"
	SectionMixed Section = "mixed"
)

// Question is an immutable unit of assessment content, sourced from the
// question bank and never mutated by the session.
type Question struct {
	ID            int64    `json:"id"`
	Text          string   `json:"text"`
	Category      Category `json:"category"`
	OptionA       string   `json:"optionA"`
	OptionB       string   `json:"optionB"`
	OptionC       string   `json:"optionC"`
	OptionD       string   `json:"optionD"`
	CorrectOption string   `json:"correctOption"` // one of A-D
	ImageURL      string   `json:"imageUrl,omitempty"`
	Topic         string   `json:"topic,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// UserAnswer is one respondent's choice for one question. SelectedOption
// is stored lowercase; Correct is filled in at scoring time.
type UserAnswer struct {
	QuestionID     int64  `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
	Correct        bool   `json:"correct"`
}

// QuizProgress is a derived, denormalized view of answering state kept
// cheap to display. It is recomputed wholesale on every answer mutation.
type QuizProgress struct {
	CurrentQuestionIndex int     `json:"currentQuestionIndex"`
	TotalQuestions       int     `json:"totalQuestions"`
	QuestionsAnswered    int     `json:"questionsAnswered"`
	SignsAnswered        int     `json:"signsQuestionsAnswered"`
	RulesAnswered        int     `json:"rulesQuestionsAnswered"`
	PercentComplete      int     `json:"percentComplete"`
	Section              Section `json:"section"`
}

// QuizSettings is configuration echoed through the session.
type QuizSettings struct {
	TotalQuestions   int           `json:"totalQuestions"`
	PassingScore     int           `json:"passingScore"` // percentage 0-100
	ShuffleQuestions bool          `json:"shuffleQuestions"`
	ShowExplanations bool          `json:"showExplanations"`
	TimeLimit        time.Duration `json:"timeLimit,omitempty"`
}

// DefaultSettings mirrors the official G1 composition: 20 questions per
// section, 80% to pass.
func DefaultSettings() QuizSettings {
	return QuizSettings{
		TotalQuestions:   20,
		PassingScore:     80,
		ShowExplanations: true,
	}
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	TotalQuestions   *int           `json:"totalQuestions,omitempty"`
	PassingScore     *int           `json:"passingScore,omitempty"`
	ShuffleQuestions *bool          `json:"shuffleQuestions,omitempty"`
	ShowExplanations *bool          `json:"showExplanations,omitempty"`
	TimeLimit        *time.Duration `json:"timeLimit,omitempty"`
}

// CategoryScore aggregates correctness within one question category.
type CategoryScore struct {
	Total      int `json:"total"`
	Correct    int `json:"correct"`
	Percentage int `json:"percentage"`
}

// QuizResult is the scored outcome of a completed session. It is produced
// exactly once per successful submit and immutable thereafter.
type QuizResult struct {
	TotalQuestions  int           `json:"totalQuestions"`
	CorrectAnswers  int           `json:"correctAnswers"`
	PercentageScore int           `json:"percentageScore"`
	Signs           CategoryScore `json:"signsScore"`
	Rules           CategoryScore `json:"rulesScore"`
	Passed          bool          `json:"passed"`
	Answers         []UserAnswer  `json:"answers"`
	SubmittedAt     time.Time     `json:"submittedAt"`
}

// Attempt is the persisted record of a completed session.
type Attempt struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Mode        Mode       `json:"mode"`
	QuestionIDs []int64    `json:"questionIds"`
	Result      QuizResult `json:"result"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// QuestionCriteria selects questions from the bank.
type QuestionCriteria struct {
	Categories []Category // empty means all categories
	IDs        []int64    // non-empty restricts to these IDs
	Limit      int        // 0 means no limit
	Shuffle    bool
}

// Access is the entitlement verdict for a feature.
type Access struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
	MaxQuestions int    `json:"maxQuestions,omitempty"` // 0 means unlimited
}
