package iam_test

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-iam"
	"github.com/goliatone/go-iam/internal/database"
	"github.com/goliatone/go-iam/mailer"
	"github.com/goliatone/go-iam/notification"
	"github.com/goliatone/go-iam/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const (
	testJWTSecret       = "login-secret-for-tests"
	testMagicLinkSecret = "magic-link-secret-for-tests"
)

var linkTokenRe = regexp.MustCompile(`token=([A-Za-z0-9_\-.]+)`)

func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"login_link.html":                {Data: []byte(`<tr><td>Hi {{ first_name }}, <a href="{{ link }}">sign in</a></td></tr>`)},
		"login_link_subject.html":        {Data: []byte(`Your sign in link`)},
		"verification_link.html":         {Data: []byte(`<tr><td>Verify {{ email }}: <a href="{{ link }}">verify</a></td></tr>`)},
		"verification_link_subject.html": {Data: []byte(`Verify your email`)},
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, iam.Migrate(context.Background(), db.DB, database.DriverSQLite))
	return db
}

func testConfig(mode iam.LoginMode) iam.Config {
	cfg := iam.DefaultConfig()
	cfg.LoginMode = mode
	cfg.MagicLinkBaseURL = "https://app.test/auth/magic"
	cfg.VerifyURL = "https://app.test/auth/verify"
	cfg.OperationTimeout = 5 * time.Second
	return cfg
}

func testCodec() *token.Codec {
	return token.NewCodec(token.StaticKeyring{
		"IAM_JWT_SECRET":        testJWTSecret,
		"IAM_MAGIC_LINK_SECRET": testMagicLinkSecret,
	})
}

type testEnv struct {
	db       *bun.DB
	repos    iam.RepositoryManager
	codec    *token.Codec
	recorder *mailer.Recorder
	cfg      iam.Config
	svc      *iam.Service
	sink     *capturingSink
}

type envOption func(*testEnv, *[]iam.ServiceOption)

func withRepos(wrap func(iam.RepositoryManager) iam.RepositoryManager) envOption {
	return func(e *testEnv, _ *[]iam.ServiceOption) {
		e.repos = wrap(e.repos)
	}
}

func withConfig(mutate func(*iam.Config)) envOption {
	return func(e *testEnv, _ *[]iam.ServiceOption) {
		mutate(&e.cfg)
	}
}

func newTestEnv(t *testing.T, mode iam.LoginMode, opts ...envOption) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:       db,
		repos:    iam.NewRepositoryManager(db),
		codec:    testCodec(),
		recorder: mailer.NewRecorder(),
		cfg:      testConfig(mode),
		sink:     &capturingSink{},
	}

	svcOpts := []iam.ServiceOption{
		iam.WithPasswordHasher(iam.NewBcryptHasher(bcrypt.MinCost)),
		iam.WithActivitySink(env.sink),
	}
	for _, opt := range opts {
		opt(env, &svcOpts)
	}

	dispatcher := notification.NewDispatcher(notification.NewPongoRenderer(testTemplates()), env.recorder)
	require.NoError(t, iam.RegisterDefaultNotifications(dispatcher, env.cfg))

	env.svc = iam.NewService(env.repos, env.codec, dispatcher, env.cfg, svcOpts...)
	return env
}

func (e *testEnv) register(t *testing.T, email string) *iam.AuthBearer {
	t.Helper()
	bearer, err := e.svc.Register(context.Background(), iam.RegisterInput{
		Email:     email,
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)
	require.NotNil(t, bearer)
	return bearer
}

func (e *testEnv) countUsers(t *testing.T) int {
	t.Helper()
	n, err := e.db.NewSelect().Model((*iam.User)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func (e *testEnv) countSessions(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	n, err := e.db.NewSelect().Model((*iam.Session)(nil)).Where("user_id = ?", userID).Count(context.Background())
	require.NoError(t, err)
	return n
}

func (e *testEnv) lastLinkToken(t *testing.T) string {
	t.Helper()
	msg, ok := e.recorder.Last()
	require.True(t, ok, "no email recorded")
	m := linkTokenRe.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2, "no token in %q", msg.Body)
	return m[1]
}

type capturingSink struct {
	mu     sync.Mutex
	events []iam.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt iam.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) types() []iam.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]iam.ActivityEventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventType)
	}
	return out
}
