package service

import (
	"os"
	"testing"

	"github.com/emrgen/manga/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()
	tester.RemoveDBFile()

	os.Exit(code)
}
