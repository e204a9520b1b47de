package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"course-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProfileStore persists profiles and course progress in Redis.
// Layout:
//
//	HSET profile:{id}              name email career giftClaimed updatedAt
//	SADD profile:{id}:courses      {courseID}
//	SADD profile:{id}:certificates {courseID}
//	SADD progress:{id}:{courseID}  {taskID}
//
// ClaimGift runs under WATCH on the profile hash and course set so the flag and
// the course grant are written in one MULTI/EXEC or not at all.
type ProfileStore struct {
	client *redis.Client
	now    func() time.Time
}

const claimRetries = 5

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client, now: time.Now}
}

func (s *ProfileStore) Get(ctx context.Context, userID string) (domain.Profile, error) {
	fields, err := s.client.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if len(fields) == 0 {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	courses, err := s.client.SMembers(ctx, coursesKey(userID)).Result()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load courses: %w", err)
	}
	certificates, err := s.client.SMembers(ctx, certificatesKey(userID)).Result()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load certificates: %w", err)
	}
	sort.Strings(courses)
	sort.Strings(certificates)

	profile := domain.Profile{
		UserID:             userID,
		Name:               fields["name"],
		Email:              fields["email"],
		Career:             fields["career"],
		PurchasedCourseIDs: courses,
		HasClaimedAnyGift:  fields["giftClaimed"] == "1",
		Certificates:       certificates,
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updatedAt"]); err == nil {
		profile.UpdatedAt = ts
	}
	return profile, nil
}

// Upsert writes identity fields and initializes the gift flag only if absent.
func (s *ProfileStore) Upsert(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	key := profileKey(profile.UserID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"name", profile.Name,
			"email", profile.Email,
			"career", profile.Career,
			"updatedAt", s.stamp(),
		)
		pipe.HSetNX(ctx, key, "giftClaimed", "0")
		return nil
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return s.Get(ctx, profile.UserID)
}

func (s *ProfileStore) AddCourse(ctx context.Context, userID, courseID string) (domain.Profile, error) {
	return s.addMember(ctx, userID, coursesKey(userID), courseID)
}

func (s *ProfileStore) AddCertificate(ctx context.Context, userID, courseID string) (domain.Profile, error) {
	return s.addMember(ctx, userID, certificatesKey(userID), courseID)
}

func (s *ProfileStore) addMember(ctx context.Context, userID, setKey, member string) (domain.Profile, error) {
	if err := s.requireProfile(ctx, userID); err != nil {
		return domain.Profile{}, err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, setKey, member)
		pipe.HSet(ctx, profileKey(userID), "updatedAt", s.stamp())
		return nil
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *ProfileStore) ClaimGift(ctx context.Context, userID, courseID string) (domain.Profile, bool, error) {
	key := profileKey(userID)
	courses := coursesKey(userID)

	var granted bool
	claim := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrProfileNotFound
		}
		claimed, err := tx.HGet(ctx, key, "giftClaimed").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if claimed == "1" {
			return domain.ErrGiftAlreadyClaimed
		}
		owned, err := tx.SIsMember(ctx, courses, courseID).Result()
		if err != nil {
			return err
		}
		granted = !owned

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if granted {
				pipe.SAdd(ctx, courses, courseID)
			}
			pipe.HSet(ctx, key, "giftClaimed", "1", "updatedAt", s.stamp())
			return nil
		})
		return err
	}

	for i := 0; i < claimRetries; i++ {
		err := s.client.Watch(ctx, claim, key, courses)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, domain.ErrGiftAlreadyClaimed) {
			profile, getErr := s.Get(ctx, userID)
			if getErr != nil {
				return domain.Profile{}, false, getErr
			}
			return profile, false, err
		}
		if err != nil {
			return domain.Profile{}, false, err
		}
		profile, err := s.Get(ctx, userID)
		return profile, granted, err
	}
	return domain.Profile{}, false, fmt.Errorf("claim gift: %w", redis.TxFailedErr)
}

func (s *ProfileStore) Completed(ctx context.Context, userID, courseID string) (map[string]bool, error) {
	tasks, err := s.client.SMembers(ctx, progressKey(userID, courseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	out := make(map[string]bool, len(tasks))
	for _, id := range tasks {
		out[id] = true
	}
	return out, nil
}

func (s *ProfileStore) SetTask(ctx context.Context, userID, courseID, taskID string, done bool) error {
	key := progressKey(userID, courseID)
	var err error
	if done {
		err = s.client.SAdd(ctx, key, taskID).Err()
	} else {
		err = s.client.SRem(ctx, key, taskID).Err()
	}
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProfileStore) requireProfile(ctx context.Context, userID string) error {
	n, err := s.client.Exists(ctx, profileKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (s *ProfileStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func profileKey(userID string) string      { return "profile:" + userID }
func coursesKey(userID string) string      { return "profile:" + userID + ":courses" }
func certificatesKey(userID string) string { return "profile:" + userID + ":certificates" }
func progressKey(userID, courseID string) string {
	return "progress:" + userID + ":" + courseID
}
