package repositories

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/audit-logger/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type MemoryLogRepoSuite struct {
	suite.Suite
	repo *MemoryLogRepo
	ctx  context.Context
	base time.Time
}

func (s *MemoryLogRepoSuite) SetupTest() {
	s.repo = NewMemoryLogRepo()
	s.ctx = context.Background()
	s.base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestMemoryLogRepoSuite(t *testing.T) {
	suite.Run(t, new(MemoryLogRepoSuite))
}

func (s *MemoryLogRepoSuite) add(minute int, createdBy, action string) *models.LogRecord {
	l := &models.LogRecord{
		CreatedBy: createdBy,
		Action:    action,
		CreatedAt: s.base.Add(time.Duration(minute) * time.Minute),
	}
	s.Require().NoError(s.repo.Append(s.ctx, l))
	return l
}

func (s *MemoryLogRepoSuite) TestAppendAssignsID() {
	l := s.add(0, "u1", "login")
	s.NotEqual(uuid.Nil, l.ID)

	preset := uuid.New()
	l2 := &models.LogRecord{ID: preset, Action: "login", CreatedAt: s.base}
	s.Require().NoError(s.repo.Append(s.ctx, l2))
	s.Equal(preset, l2.ID)
}

func (s *MemoryLogRepoSuite) TestFindOrdersNewestFirst() {
	s.add(2, "u1", "login")
	s.add(0, "u1", "login")
	s.add(5, "u2", "logout")
	s.add(1, "u2", "login")

	logs, err := s.repo.Find(s.ctx, models.LogQuery{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(logs, 4)
	for i := 1; i < len(logs); i++ {
		s.False(logs[i].CreatedAt.After(logs[i-1].CreatedAt), "record %d is newer than record %d", i, i-1)
	}
	s.Equal(s.base.Add(5*time.Minute), logs[0].CreatedAt)
}

func (s *MemoryLogRepoSuite) TestFindWindow() {
	for i := 0; i < 5; i++ {
		s.add(i, "u1", "login")
	}

	s.Run("middle window", func() {
		logs, err := s.repo.Find(s.ctx, models.LogQuery{Limit: 2, Offset: 2})
		s.Require().NoError(err)
		s.Require().Len(logs, 2)
		s.Equal(s.base.Add(2*time.Minute), logs[0].CreatedAt)
		s.Equal(s.base.Add(1*time.Minute), logs[1].CreatedAt)
	})

	s.Run("partial last window", func() {
		logs, err := s.repo.Find(s.ctx, models.LogQuery{Limit: 2, Offset: 4})
		s.Require().NoError(err)
		s.Len(logs, 1)
	})

	s.Run("huge offset and limit do not overflow", func() {
		logs, err := s.repo.Find(s.ctx, models.LogQuery{Limit: math.MaxInt, Offset: math.MaxInt})
		s.Require().NoError(err)
		s.Empty(logs)

		logs, err = s.repo.Find(s.ctx, models.LogQuery{Limit: math.MaxInt, Offset: 3})
		s.Require().NoError(err)
		s.Len(logs, 2)
	})

	s.Run("negative window is rejected", func() {
		_, err := s.repo.Find(s.ctx, models.LogQuery{Limit: 2, Offset: -4})
		s.Error(err)
		_, err = s.repo.Find(s.ctx, models.LogQuery{Limit: -1})
		s.Error(err)
	})

	s.Run("past the end is empty, not nil", func() {
		logs, err := s.repo.Find(s.ctx, models.LogQuery{Limit: 2, Offset: 10})
		s.Require().NoError(err)
		s.NotNil(logs)
		s.Empty(logs)
	})
}

func (s *MemoryLogRepoSuite) TestCountMatchesPredicate() {
	s.add(0, "u1", "login")
	s.add(1, "u1", "logout")
	s.add(2, "u2", "login")

	action := "login"
	n, err := s.repo.Count(s.ctx, models.LogPredicate{Action: &action})
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.repo.Count(s.ctx, models.LogPredicate{})
	s.Require().NoError(err)
	s.Equal(int64(3), n)
}

func (s *MemoryLogRepoSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.Error(s.repo.Append(ctx, &models.LogRecord{Action: "login"}))
	_, err := s.repo.Find(ctx, models.LogQuery{Limit: 1})
	s.Error(err)
	_, err = s.repo.Count(ctx, models.LogPredicate{})
	s.Error(err)
}

func (s *MemoryLogRepoSuite) TestConcurrentAppends() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.repo.Append(s.ctx, &models.LogRecord{
				CreatedBy: fmt.Sprintf("u%d", i),
				Action:    "login",
				CreatedAt: s.base.Add(time.Duration(i) * time.Second),
			})
		}(i)
	}
	wg.Wait()

	n, err := s.repo.Count(s.ctx, models.LogPredicate{})
	s.Require().NoError(err)
	s.Equal(int64(50), n)
}
