package testutil

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/suite"
	"github.com/uptrace/bun"
)

// DBSuite provides a migrated database per suite and a rolled-back
// transaction per test.
//
// Usage:
//
//	type RepoSuite struct {
//	    testutil.DBSuite
//	}
//
//	func TestRepoSuite(t *testing.T) {
//	    suite.Run(t, new(RepoSuite))
//	}
type DBSuite struct {
	suite.Suite
	TestDB *TestDB
	Ctx    context.Context
	Log    *slog.Logger

	dbSuffix string
}

// SetDBSuffix sets the database name suffix. Call it before DBSuite.SetupSuite.
func (s *DBSuite) SetDBSuffix(suffix string) {
	s.dbSuffix = suffix
}

// SetupSuite creates the test database, or skips the suite without one.
// If you override this, call s.DBSuite.SetupSuite() first.
func (s *DBSuite) SetupSuite() {
	RequireDB(s.T())

	s.Ctx = context.Background()
	s.Log = slog.New(slog.NewTextHandler(io.Discard, nil))

	suffix := s.dbSuffix
	if suffix == "" {
		suffix = "suite"
	}
	testDB, err := SetupTestDB(s.Ctx, suffix)
	s.Require().NoError(err, "Failed to setup test database")
	s.TestDB = testDB
}

// TearDownSuite drops the test database.
func (s *DBSuite) TearDownSuite() {
	if s.TestDB != nil {
		s.TestDB.Close()
	}
}

// SetupTest opens the per-test transaction.
func (s *DBSuite) SetupTest() {
	s.Require().NoError(s.TestDB.BeginTestTx(s.Ctx), "Failed to begin test transaction")
}

// TearDownTest discards everything the test wrote.
func (s *DBSuite) TearDownTest() {
	_ = s.TestDB.RollbackTestTx()
}

// DB returns the per-test transaction.
func (s *DBSuite) DB() bun.IDB {
	return s.TestDB.GetDB()
}
