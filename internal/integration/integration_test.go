package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"course-trivia-service/internal/app"
	"course-trivia-service/internal/domain"
	pgloader "course-trivia-service/internal/infra/postgres"
	pgmigrations "course-trivia-service/internal/infra/postgres/migrations"
	infraredis "course-trivia-service/internal/infra/redis"
	"github.com/google/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestMain(m *testing.M) {
	logger.Init("test", false, false, io.Discard)
	os.Exit(m.Run())
}

func TestGiftClaimEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seed(t, ctx, pgURL, sampleCatalog(), sampleBank())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	bank, err := pgloader.NewBankLoader(pool).LoadBank(ctx)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if len(bank.Levels) != 2 || bank.Levels[0].Name != "Easy" {
		t.Fatalf("unexpected bank %+v", bank)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	catalog := infraredis.NewCatalogRepository(redisClient, pgloader.NewCatalogLoader(pool), 5*time.Minute)
	profiles := infraredis.NewProfileStore(redisClient)
	games := app.NewGameService(infraredis.NewGameStore(redisClient, 5*time.Minute), bank, catalog, profiles, app.GameOptions{
		AnswerWindow:      time.Minute,
		QuestionsPerLevel: 3,
		NewRand:           func() app.Shuffler { return rand.New(rand.NewSource(1)) },
	})
	profileService := app.NewProfileService(profiles, profiles, catalog)

	profile, err := profileService.Login(ctx, "Ana", "ana@example.com", "Engineer")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	snap := playAll(t, ctx, games, profile.UserID)
	if snap.Decision != domain.DecisionClaimAvailable || snap.GiftCourse == nil || snap.GiftCourse.ID != "course-1" {
		t.Fatalf("expected claim available for course-1, got %+v", snap)
	}
	result, err := games.Claim(ctx, profile.UserID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !result.Granted {
		t.Fatalf("expected granted claim, got %+v", result)
	}

	stored, err := profileService.Get(ctx, profile.UserID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !stored.HasClaimedAnyGift || !stored.Owns("course-1") {
		t.Fatalf("expected gift persisted, got %+v", stored)
	}

	snap = playAll(t, ctx, games, profile.UserID)
	if snap.Decision != domain.DecisionAlreadyClaimed {
		t.Fatalf("expected already claimed on replay, got %s", snap.Decision)
	}

	progress, err := profileService.ToggleTask(ctx, profile.UserID, "course-1", "1-1")
	if err != nil {
		t.Fatalf("toggle task: %v", err)
	}
	if progress.Completed != 1 || progress.Total != 2 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

// playAll starts a game and answers every question with "yes", the correct option in the seeded bank.
func playAll(t *testing.T, ctx context.Context, games *app.GameService, userID string) domain.GameSnapshot {
	t.Helper()
	snap, err := games.Start(ctx, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for snap.Phase == domain.PhaseAwaitingAnswer {
		if _, err := games.Choose(ctx, userID, "yes"); err != nil {
			t.Fatalf("choose: %v", err)
		}
		if _, err := games.Submit(ctx, userID); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if snap, err = games.Advance(ctx, userID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if snap.Phase != domain.PhaseFinished {
		t.Fatalf("expected finished game, got %s", snap.Phase)
	}
	return snap
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seed(t *testing.T, ctx context.Context, dsn string, catalog domain.Catalog, bank domain.QuestionBank) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for i, course := range catalog.Courses {
		data, err := json.Marshal(course)
		if err != nil {
			t.Fatalf("marshal course: %v", err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO courses (id, position, data) VALUES (?, ?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, course.ID, i, string(data)); err != nil {
			t.Fatalf("insert course: %v", err)
		}
	}
	for i, level := range bank.Levels {
		data, err := json.Marshal(level)
		if err != nil {
			t.Fatalf("marshal level: %v", err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO trivia_levels (position, data) VALUES (?, ?::jsonb) ON CONFLICT (position) DO UPDATE SET data=EXCLUDED.data`, i, string(data)); err != nil {
			t.Fatalf("insert level: %v", err)
		}
	}
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{Courses: []domain.Course{
		{
			ID:           "course-1",
			Title:        "Leadership",
			Cost:         4999,
			GiftEligible: true,
			Tasks:        []domain.Task{{ID: "1-1", Title: "Case study"}, {ID: "1-2", Title: "Final project"}},
		},
		{ID: "course-2", Title: "Digital Marketing", Cost: 5999},
	}}
}

func sampleBank() domain.QuestionBank {
	question := func(text string) domain.Question {
		return domain.Question{Text: text, Options: []string{"yes", "no", "sometimes", "rarely"}, CorrectOption: "yes"}
	}
	return domain.QuestionBank{Levels: []domain.Level{
		{Name: "Easy", Questions: []domain.Question{question("e1"), question("e2"), question("e3")}},
		{Name: "Hard", Questions: []domain.Question{question("h1"), question("h2"), question("h3"), question("h4")}},
	}}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
