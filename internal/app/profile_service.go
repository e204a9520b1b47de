package app

import (
	"context"
	"fmt"
	"strings"

	"course-trivia-service/internal/domain"
	"github.com/google/logger"
	"github.com/google/uuid"
)

// ProgressStore records per-task completion for a user's course.
type ProgressStore interface {
	Completed(ctx context.Context, userID, courseID string) (map[string]bool, error)
	SetTask(ctx context.Context, userID, courseID, taskID string, done bool) error
}

// ProfileService covers login, purchases, course progress and certificates.
type ProfileService struct {
	profiles ProfileStore
	progress ProgressStore
	catalog  CatalogRepository
}

func NewProfileService(profiles ProfileStore, progress ProgressStore, catalog CatalogRepository) *ProfileService {
	return &ProfileService{profiles: profiles, progress: progress, catalog: catalog}
}

// UserIDForEmail derives a stable user ID from an email address.
func UserIDForEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+normalized)).String()
}

// Login creates the profile on first use or refreshes its identity fields.
// Purchases, certificates and the gift flag survive repeated logins.
func (s *ProfileService) Login(ctx context.Context, name, email, career string) (domain.Profile, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return domain.Profile{}, fmt.Errorf("%w: name and email are required", domain.ErrInvalidProfile)
	}
	profile, err := s.profiles.Upsert(ctx, domain.Profile{
		UserID: UserIDForEmail(email),
		Name:   name,
		Email:  email,
		Career: strings.TrimSpace(career),
	})
	if err != nil {
		return domain.Profile{}, err
	}
	logger.Infof("user %s logged in", profile.UserID)
	return profile, nil
}

// Get returns a profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// Catalog returns the course catalog.
func (s *ProfileService) Catalog(ctx context.Context) (domain.Catalog, error) {
	return s.catalog.GetCatalog(ctx)
}

// Purchase adds a catalog course to the user's library. Buying an owned course is a no-op.
func (s *ProfileService) Purchase(ctx context.Context, userID, courseID string) (domain.Profile, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return domain.Profile{}, err
	}
	return s.profiles.AddCourse(ctx, userID, courseID)
}

// Progress reports task completion and grades for an owned course.
func (s *ProfileService) Progress(ctx context.Context, userID, courseID string) (domain.CourseProgress, error) {
	course, err := s.ownedCourse(ctx, userID, courseID)
	if err != nil {
		return domain.CourseProgress{}, err
	}
	completed, err := s.progress.Completed(ctx, userID, courseID)
	if err != nil {
		return domain.CourseProgress{}, err
	}
	return buildProgress(course, completed), nil
}

// ToggleTask flips the completion of one task and returns the new progress.
func (s *ProfileService) ToggleTask(ctx context.Context, userID, courseID, taskID string) (domain.CourseProgress, error) {
	course, err := s.ownedCourse(ctx, userID, courseID)
	if err != nil {
		return domain.CourseProgress{}, err
	}
	found := false
	for _, task := range course.Tasks {
		if task.ID == taskID {
			found = true
			break
		}
	}
	if !found {
		return domain.CourseProgress{}, domain.ErrTaskNotFound
	}

	completed, err := s.progress.Completed(ctx, userID, courseID)
	if err != nil {
		return domain.CourseProgress{}, err
	}
	done := !completed[taskID]
	if err := s.progress.SetTask(ctx, userID, courseID, taskID, done); err != nil {
		return domain.CourseProgress{}, err
	}
	completed[taskID] = done
	return buildProgress(course, completed), nil
}

// ObtainCertificate records a certificate once every task is complete.
func (s *ProfileService) ObtainCertificate(ctx context.Context, userID, courseID string) (domain.Profile, error) {
	progress, err := s.Progress(ctx, userID, courseID)
	if err != nil {
		return domain.Profile{}, err
	}
	if progress.Total == 0 || progress.Completed < progress.Total {
		return domain.Profile{}, domain.ErrCourseIncomplete
	}
	return s.profiles.AddCertificate(ctx, userID, courseID)
}

func (s *ProfileService) course(ctx context.Context, courseID string) (domain.Course, error) {
	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return domain.Course{}, err
	}
	course, ok := catalog.Lookup(courseID)
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

func (s *ProfileService) ownedCourse(ctx context.Context, userID, courseID string) (domain.Course, error) {
	course, err := s.course(ctx, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.Course{}, err
	}
	if !profile.Owns(courseID) {
		return domain.Course{}, domain.ErrCourseNotOwned
	}
	return course, nil
}

// buildProgress grades completed tasks 100 and the rest 0.
func buildProgress(course domain.Course, completed map[string]bool) domain.CourseProgress {
	progress := domain.CourseProgress{
		CourseID: course.ID,
		Tasks:    make([]domain.TaskProgress, 0, len(course.Tasks)),
		Total:    len(course.Tasks),
	}
	gradeSum := 0
	for _, task := range course.Tasks {
		tp := domain.TaskProgress{Task: task}
		if completed[task.ID] {
			tp.Completed = true
			tp.Grade = 100
			progress.Completed++
			gradeSum += tp.Grade
		}
		progress.Tasks = append(progress.Tasks, tp)
	}
	if progress.Total > 0 {
		progress.Percentage = float64(progress.Completed) / float64(progress.Total) * 100
		progress.FinalGrade = float64(gradeSum) / float64(progress.Total)
	}
	return progress
}
