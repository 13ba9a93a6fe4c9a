package redis

import (
	"context"

	"github.com/kailas-cloud/bayesavg/internal/db"
)

// ZAdd inserts member with score, or moves it if already present.
func (s *Store) ZAdd(ctx context.Context, key, member string, score float64) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRange returns all members ordered by ascending score; ties are ordered lexically.
func (s *Store) ZRange(ctx context.Context, key string) ([]string, error) {
	members, err := s.do(ctx, s.b().Zrange().Key(key).Min("0").Max("-1").Build()).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	return members, nil
}

// ZRem removes members. Absent members are ignored.
func (s *Store) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := s.do(ctx, s.b().Zrem().Key(key).Member(members...).Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}
