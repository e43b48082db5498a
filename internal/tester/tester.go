package tester

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emrgen/manga/internal/model"
)

var (
	db       *gorm.DB
	testPath string
)

// Setup creates a fresh migrated sqlite database shared by the tests of a
// package, in a temporary directory owned by the test binary.
func Setup() {
	RemoveDBFile()

	_ = os.Setenv("ENV", "test")

	var err error
	testPath, err = os.MkdirTemp("", "manga-test-")
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(filepath.Join(testPath, "manga.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func RemoveDBFile() {
	if testPath == "" {
		return
	}
	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
}

// Redis starts an in-process redis server that lives as long as the test.
func Redis(t testing.TB) *redis.Client {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}
