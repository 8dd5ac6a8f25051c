package authentication

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mehmetcc/session-rotation-service/internal/password"
	"github.com/mehmetcc/session-rotation-service/internal/user"
	"github.com/mehmetcc/session-rotation-service/internal/utils"
)

var testSettings = TokenSettings{
	AccessSecret:  "test-access-secret-0123456789abcdef",
	AccessTTL:     15 * time.Minute,
	RefreshSecret: "test-refresh-secret-0123456789abcdef",
	RefreshTTL:    7 * 24 * time.Hour,
}

var storeKinds = []string{utils.StoreDatabase, utils.StoreRedis}

// testDB opens a private in-memory sqlite database on a single connection.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), utils.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&user.Account{}, &RefreshToken{}))
	return db
}

func testRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func newRecordRepo(t *testing.T, kind string, db *gorm.DB) RecordRepository {
	t.Helper()
	if kind == utils.StoreRedis {
		rdb, _ := testRedis(t)
		return NewRedisRecordRepository(rdb)
	}
	return NewRecordRepository(db)
}

type fixture struct {
	db      *gorm.DB
	users   user.UserService
	records RecordRepository
	impl    *authenticationService
	svc     AuthenticationService
}

func newFixture(t *testing.T, kind string) *fixture {
	t.Helper()

	db := testDB(t)
	logger := zap.NewNop()
	users := user.NewUserService(user.NewUserRepository(db), logger)
	records := newRecordRepo(t, kind, db)
	svc, err := NewAuthenticationService(users, records, password.NewBcryptHasher(bcrypt.MinCost), testSettings, logger)
	require.NoError(t, err)

	return &fixture{
		db:      db,
		users:   users,
		records: records,
		impl:    svc.(*authenticationService),
		svc:     svc,
	}
}
