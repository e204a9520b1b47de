package domain

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNoSelection is returned when submitting without a chosen option before the timer expired.
	ErrNoSelection = errors.New("an option must be chosen before submitting")
	// ErrOptionNotFound indicates a chosen option is not part of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEmptyLevel marks a level that has no questions to draw.
	ErrEmptyLevel = errors.New("no questions available for level")
	// ErrEmptyBank is returned when a game is started against a bank with no levels.
	ErrEmptyBank = errors.New("question bank has no levels")
	// ErrInvalidBank is returned when a question is malformed.
	ErrInvalidBank = errors.New("invalid question bank")
	// ErrGameNotFound is returned when a user acts without an active game.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameClosed is returned when a command reaches a game that has shut down.
	ErrGameClosed = errors.New("game closed")
	// ErrProfileNotFound is returned when a user profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrCourseNotFound indicates the course is not in the catalog.
	ErrCourseNotFound = errors.New("course not found")
	// ErrTaskNotFound indicates the task is not part of the course.
	ErrTaskNotFound = errors.New("task not found")
	// ErrCourseNotOwned is returned for progress actions on a course the user has not purchased.
	ErrCourseNotOwned = errors.New("course not owned")
	// ErrCourseIncomplete is returned when a certificate is requested before all tasks are done.
	ErrCourseIncomplete = errors.New("course not complete")
	// ErrGiftAlreadyClaimed is returned by profile stores when the one-time gift was already used.
	ErrGiftAlreadyClaimed = errors.New("gift already claimed")
	// ErrInvalidProfile is returned when login data is missing required fields.
	ErrInvalidProfile = errors.New("invalid profile")
)
