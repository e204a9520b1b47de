package memory

import (
	"context"
	"sync"
	"time"

	"course-trivia-service/internal/domain"
)

// ProfileStore keeps profiles and course progress in process memory.
// It implements app.ProfileStore and app.ProgressStore.
type ProfileStore struct {
	now func() time.Time

	mu       sync.RWMutex
	profiles map[string]*domain.Profile
	progress map[string]map[string]bool // userID/courseID -> taskID -> done
}

func NewProfileStore() *ProfileStore {
	return NewProfileStoreWithClock(time.Now)
}

// NewProfileStoreWithClock is used by tests for deterministic timestamps.
func NewProfileStoreWithClock(now func() time.Time) *ProfileStore {
	return &ProfileStore{
		now:      now,
		profiles: make(map[string]*domain.Profile),
		progress: make(map[string]map[string]bool),
	}
}

func (s *ProfileStore) Get(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

// Upsert creates the profile or refreshes name, email and career only.
func (s *ProfileStore) Upsert(_ context.Context, profile domain.Profile) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.profiles[profile.UserID]
	if !ok {
		existing = &domain.Profile{
			UserID:             profile.UserID,
			PurchasedCourseIDs: []string{},
			Certificates:       []string{},
		}
		s.profiles[profile.UserID] = existing
	}
	existing.Name = profile.Name
	existing.Email = profile.Email
	existing.Career = profile.Career
	existing.UpdatedAt = now
	return cloneProfile(existing), nil
}

func (s *ProfileStore) AddCourse(_ context.Context, userID, courseID string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	profile.PurchasedCourseIDs = appendUnique(profile.PurchasedCourseIDs, courseID)
	profile.UpdatedAt = s.now()
	return cloneProfile(profile), nil
}

func (s *ProfileStore) AddCertificate(_ context.Context, userID, courseID string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	profile.Certificates = appendUnique(profile.Certificates, courseID)
	profile.UpdatedAt = s.now()
	return cloneProfile(profile), nil
}

// ClaimGift checks the one-time flag and applies both mutations under one lock.
func (s *ProfileStore) ClaimGift(_ context.Context, userID, courseID string) (domain.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, false, domain.ErrProfileNotFound
	}
	if profile.HasClaimedAnyGift {
		return cloneProfile(profile), false, domain.ErrGiftAlreadyClaimed
	}

	granted := !profile.Owns(courseID)
	if granted {
		profile.PurchasedCourseIDs = append(profile.PurchasedCourseIDs, courseID)
	}
	profile.HasClaimedAnyGift = true
	profile.UpdatedAt = s.now()
	return cloneProfile(profile), granted, nil
}

func (s *ProfileStore) Completed(_ context.Context, userID, courseID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := s.progress[progressKey(userID, courseID)]
	out := make(map[string]bool, len(tasks))
	for id, done := range tasks {
		out[id] = done
	}
	return out, nil
}

func (s *ProfileStore) SetTask(_ context.Context, userID, courseID, taskID string, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey(userID, courseID)
	tasks, ok := s.progress[key]
	if !ok {
		tasks = make(map[string]bool)
		s.progress[key] = tasks
	}
	if done {
		tasks[taskID] = true
	} else {
		delete(tasks, taskID)
	}
	return nil
}

func progressKey(userID, courseID string) string {
	return userID + "/" + courseID
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func cloneProfile(p *domain.Profile) domain.Profile {
	out := *p
	out.PurchasedCourseIDs = append([]string{}, p.PurchasedCourseIDs...)
	out.Certificates = append([]string{}, p.Certificates...)
	return out
}
