package domain

import "time"

// OptionsPerQuestion is the number of choices every question offers.
const OptionsPerQuestion = 4

// Question is a fixed-choice trivia question. CorrectOption must match one of Options.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
}

// Level is a named group of questions presented together.
type Level struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuestionBank is the ordered, read-only list of levels for a trivia game.
type QuestionBank struct {
	Levels []Level `json:"levels"`
}

// Task is a gradable unit of work inside a course.
type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Course is a catalog entry.
type Course struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Instructor   string `json:"instructor"`
	Cost         int    `json:"cost"` // in cents
	GiftEligible bool   `json:"giftEligible"`
	Tasks        []Task `json:"tasks"`
}

// Catalog is the ordered course list.
type Catalog struct {
	Courses []Course `json:"courses"`
}

// Lookup returns the course with the given ID.
func (c Catalog) Lookup(id string) (Course, bool) {
	for _, course := range c.Courses {
		if course.ID == id {
			return course, true
		}
	}
	return Course{}, false
}

// Profile is the persisted user record.
type Profile struct {
	UserID             string    `json:"userId"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Career             string    `json:"career"`
	PurchasedCourseIDs []string  `json:"purchasedCourseIds"`
	HasClaimedAnyGift  bool      `json:"hasClaimedAnyGift"`
	Certificates       []string  `json:"certificates"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// GiftState extracts the fields the gift coordinator reasons about.
func (p Profile) GiftState() UserGiftState {
	owned := make(map[string]struct{}, len(p.PurchasedCourseIDs))
	for _, id := range p.PurchasedCourseIDs {
		owned[id] = struct{}{}
	}
	return UserGiftState{PurchasedCourseIDs: owned, HasClaimedAnyGift: p.HasClaimedAnyGift}
}

// Owns reports whether the course is in the purchased set.
func (p Profile) Owns(courseID string) bool {
	for _, id := range p.PurchasedCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// UserGiftState is a snapshot of the profile fields that gate gift claims.
// HasClaimedAnyGift only ever moves from false to true.
type UserGiftState struct {
	PurchasedCourseIDs map[string]struct{}
	HasClaimedAnyGift  bool
}

// Owns reports whether the course is already purchased.
func (s UserGiftState) Owns(courseID string) bool {
	_, ok := s.PurchasedCourseIDs[courseID]
	return ok
}

// Outcome is the evaluated result of a finished session.
type Outcome struct {
	FinalScore     int  `json:"finalScore"`
	TotalQuestions int  `json:"totalQuestions"`
	WonGame        bool `json:"wonGame"`
	WonCourseGift  bool `json:"wonCourseGift"`
}

// ClaimDecision is the terminal UI state offered after a session finishes.
type ClaimDecision string

const (
	DecisionNoGift         ClaimDecision = "noGift"
	DecisionAlreadyClaimed ClaimDecision = "alreadyClaimed"
	DecisionAlreadyOwned   ClaimDecision = "alreadyOwned"
	DecisionClaimAvailable ClaimDecision = "claimAvailable"
)

// ClaimResult reports what a confirmed claim did to the profile.
type ClaimResult struct {
	Decision ClaimDecision `json:"decision"`
	CourseID string        `json:"courseId,omitempty"`
	Granted  bool          `json:"granted"`  // course added to the purchased set
	Consumed bool          `json:"consumed"` // one-time gift flag set by this claim
}

// Phase is the externally visible state of a trivia session.
type Phase string

const (
	PhaseAwaitingAnswer Phase = "awaitingAnswer"
	PhaseAnswerShown    Phase = "answerShown"
	PhaseNoQuestions    Phase = "noQuestions"
	PhaseFinished       Phase = "finished"
)

// OptionMark is the display state of an option.
type OptionMark string

const (
	MarkNeutral   OptionMark = "neutral"
	MarkSelected  OptionMark = "selected"
	MarkCorrect   OptionMark = "correct"
	MarkIncorrect OptionMark = "incorrect"
)

// OptionView is one option as the client should render it.
type OptionView struct {
	Text string     `json:"text"`
	Mark OptionMark `json:"mark"`
}

// QuestionView hides the correct option until the answer is revealed.
type QuestionView struct {
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

// AnswerReveal summarizes a submitted (or timed out) answer.
type AnswerReveal struct {
	Correct  bool   `json:"correct"`
	TimedOut bool   `json:"timedOut"`
	Selected string `json:"selected,omitempty"`
	Score    int    `json:"score"`
}

// GameSnapshot is a read-only view of a game for rendering.
type GameSnapshot struct {
	GameID         string        `json:"gameId"`
	Phase          Phase         `json:"phase"`
	LevelName      string        `json:"levelName,omitempty"`
	LevelIndex     int           `json:"levelIndex"`
	LevelCount     int           `json:"levelCount"`
	QuestionIndex  int           `json:"questionIndex"`
	QuestionCount  int           `json:"questionCount"`
	Question       *QuestionView `json:"question,omitempty"`
	Selected       string        `json:"selected,omitempty"`
	TimedOut       bool          `json:"timedOut,omitempty"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"totalQuestions"`
	Outcome        *Outcome      `json:"outcome,omitempty"`
	Decision       ClaimDecision `json:"decision,omitempty"`
	GiftCourse     *Course       `json:"giftCourse,omitempty"`
	Claim          *ClaimResult  `json:"claim,omitempty"`
}

// Event types emitted by a running game.
const (
	EventQuestionShown   = "questionShown"
	EventAnswerRevealed  = "answerRevealed"
	EventScoreChanged    = "scoreChanged"
	EventSessionFinished = "sessionFinished"
	EventLevelEmpty      = "levelEmpty"
	EventClaimResult     = "claimResult"
)

// Event is an output notification from a game.
type Event struct {
	Type    string    `json:"type"`
	GameID  string    `json:"gameId"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// ScoreChanged is the payload of EventScoreChanged.
type ScoreChanged struct {
	Score int `json:"score"`
}

// SessionFinished is the payload of EventSessionFinished.
type SessionFinished struct {
	Outcome  Outcome       `json:"outcome"`
	Decision ClaimDecision `json:"decision"`
}

// TaskProgress is one task with its completion state.
type TaskProgress struct {
	Task
	Completed bool `json:"completed"`
	Grade     int  `json:"grade"`
}

// CourseProgress aggregates task completion for one user and course.
type CourseProgress struct {
	CourseID   string         `json:"courseId"`
	Tasks      []TaskProgress `json:"tasks"`
	Completed  int            `json:"completed"`
	Total      int            `json:"total"`
	Percentage float64        `json:"percentage"`
	FinalGrade float64        `json:"finalGrade"`
}
