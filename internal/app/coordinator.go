package app

import (
	"context"
	"errors"
	"fmt"

	"course-trivia-service/internal/domain"
	"github.com/google/logger"
)

// ProfileStore abstracts where user profiles live (in-memory, Redis).
// ClaimGift is the only gift mutation: it must add the course (when not owned)
// and set HasClaimedAnyGift together, or fail with ErrGiftAlreadyClaimed
// without changing anything.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
	Upsert(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	AddCourse(ctx context.Context, userID, courseID string) (domain.Profile, error)
	AddCertificate(ctx context.Context, userID, courseID string) (domain.Profile, error)
	ClaimGift(ctx context.Context, userID, courseID string) (profile domain.Profile, granted bool, err error)
}

// GiftCoordinator turns a session outcome into a claim decision and applies
// confirmed claims to the profile store.
//
// Claiming a gift course the user already owns still consumes the one-time
// gift flag.
type GiftCoordinator struct {
	profiles ProfileStore
	recorder Recorder
}

func NewGiftCoordinator(profiles ProfileStore, recorder Recorder) *GiftCoordinator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &GiftCoordinator{profiles: profiles, recorder: recorder}
}

// Decide evaluates the decision table in order. An empty giftCourseID means
// no course is on offer.
func (c *GiftCoordinator) Decide(outcome domain.Outcome, state domain.UserGiftState, giftCourseID string) domain.ClaimDecision {
	switch {
	case !outcome.WonCourseGift || giftCourseID == "":
		return domain.DecisionNoGift
	case state.HasClaimedAnyGift:
		return domain.DecisionAlreadyClaimed
	case state.Owns(giftCourseID):
		return domain.DecisionAlreadyOwned
	default:
		return domain.DecisionClaimAvailable
	}
}

// Claim applies a user-confirmed claim. Rejections are reported through the
// result's Decision; only store failures return an error.
func (c *GiftCoordinator) Claim(ctx context.Context, userID, giftCourseID string, decision domain.ClaimDecision) (domain.ClaimResult, error) {
	result := domain.ClaimResult{Decision: decision, CourseID: giftCourseID}
	if decision == domain.DecisionNoGift || decision == domain.DecisionAlreadyClaimed {
		return result, nil
	}

	_, granted, err := c.profiles.ClaimGift(ctx, userID, giftCourseID)
	if errors.Is(err, domain.ErrGiftAlreadyClaimed) {
		logger.Infof("gift claim for user %s rejected: already claimed", userID)
		result.Decision = domain.DecisionAlreadyClaimed
		c.recorder.GiftClaimed(result)
		return result, nil
	}
	if err != nil {
		return domain.ClaimResult{}, fmt.Errorf("claim gift: %w", err)
	}

	result.Granted = granted
	result.Consumed = true
	if !granted {
		result.Decision = domain.DecisionAlreadyOwned
	}
	logger.Infof("user %s claimed gift course %s (granted=%v)", userID, giftCourseID, granted)
	c.recorder.GiftClaimed(result)
	return result, nil
}

// ResolveGiftCourse picks the gift course: the configured ID, or the first
// catalog entry when none is configured. A missing or non-eligible course
// disables the gift.
func ResolveGiftCourse(catalog domain.Catalog, configuredID string) (domain.Course, bool) {
	var (
		course domain.Course
		ok     bool
	)
	if configuredID == "" {
		if len(catalog.Courses) > 0 {
			course, ok = catalog.Courses[0], true
		}
	} else {
		course, ok = catalog.Lookup(configuredID)
	}
	if !ok {
		logger.Warningf("gift course %q not in catalog; gifts disabled", configuredID)
		return domain.Course{}, false
	}
	if !course.GiftEligible {
		logger.Warningf("gift course %q is not gift eligible; gifts disabled", course.ID)
		return domain.Course{}, false
	}
	return course, true
}
