package api

import "time"

// PaginatedList is the backend's standard page envelope.
type PaginatedList[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// User is the authenticated account profile.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsPremium bool   `json:"is_premium"`
}

// LoginResult is the response of a successful credential exchange.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Subject groups courses inside a bundle.
type Subject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CourseCount int    `json:"course_count"`
}

// Bundle is a purchasable collection of subjects.
type Bundle struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	SubjectCount int     `json:"subject_count"`
	IsActive     bool    `json:"is_active"`
}

// BundleSubjects is a bundle together with its subject list.
type BundleSubjects struct {
	Bundle   Bundle    `json:"bundle"`
	Subjects []Subject `json:"subjects"`
}

// Course is a single lesson unit within a subject.
type Course struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	SubjectID   int64  `json:"subject_id"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	IsFree      bool   `json:"is_free"`
}

// Purchase records an owned bundle.
type Purchase struct {
	ID          int64      `json:"id"`
	Bundle      Bundle     `json:"bundle"`
	Status      string     `json:"status"`
	PurchasedAt time.Time  `json:"purchased_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// QuizAnswer is one selectable option of a quiz question.
type QuizAnswer struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// QuizQuestion is a question with its options.
type QuizQuestion struct {
	ID      int64        `json:"id"`
	Text    string       `json:"text"`
	Answers []QuizAnswer `json:"answers"`
}

// Quiz is a course-level knowledge check.
type Quiz struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	CourseID        int64          `json:"course_id"`
	DurationMinutes int            `json:"duration_minutes"`
	Questions       []QuizQuestion `json:"questions"`
}

// SelectedAnswer pairs a question with the chosen option on submission.
type SelectedAnswer struct {
	QuestionID int64 `json:"question_id"`
	AnswerID   int64 `json:"answer_id"`
}

// QuizResult is the grading outcome of a quiz submission.
type QuizResult struct {
	QuizID         int64   `json:"quiz_id"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
}

// ExamSubject is a national-exam practice subject.
type ExamSubject struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PaperCount int    `json:"paper_count"`
}

// ExamYear is an available past-paper year for a subject.
type ExamYear struct {
	ID        int64 `json:"id"`
	SubjectID int64 `json:"subject_id"`
	Year      int   `json:"year"`
}

// ExamAnswer is one lettered option of a past-paper question.
type ExamAnswer struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ExamQuestion is a numbered past-paper question with options.
type ExamQuestion struct {
	ID      int64        `json:"id"`
	Number  int          `json:"number"`
	Text    string       `json:"text"`
	Answers []ExamAnswer `json:"answers"`
}

// ExamPaper is a full past paper with nested questions and answers.
type ExamPaper struct {
	ID              int64          `json:"id"`
	SubjectID       int64          `json:"subject_id"`
	Year            int            `json:"year"`
	DurationMinutes int            `json:"duration_minutes"`
	Questions       []ExamQuestion `json:"questions"`
}

// Attempt is an in-progress or graded practice attempt.
type Attempt struct {
	ID        int64     `json:"id"`
	PaperID   int64     `json:"paper_id"`
	StartedAt time.Time `json:"started_at"`
}

// AttemptResult is the grading outcome of a submitted attempt.
type AttemptResult struct {
	AttemptID      int64     `json:"attempt_id"`
	PaperID        int64     `json:"paper_id"`
	Score          float64   `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// DashboardStats aggregates a learner's practice history.
type DashboardStats struct {
	AttemptsTotal     int             `json:"attempts_total"`
	AverageScore      float64         `json:"average_score"`
	BestScore         float64         `json:"best_score"`
	SubjectsPracticed int             `json:"subjects_practiced"`
	RecentAttempts    []AttemptResult `json:"recent_attempts"`
}

// Task is a gamified to-do shown on the learner dashboard.
type Task struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Completed    bool   `json:"completed"`
	RewardPoints int    `json:"reward_points"`
}

// Mobile-money transaction statuses reported by the backend.
const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusSuccessful = "SUCCESSFUL"
	PaymentStatusFailed     = "FAILED"
	PaymentStatusUnknown    = "UNKNOWN"
)

// InitiatePaymentResult acknowledges a charge request.
type InitiatePaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// PaymentStatusResult reports the current state of a charge.
type PaymentStatusResult struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}
