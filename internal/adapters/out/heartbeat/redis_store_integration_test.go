package heartbeat_test

import (
	"fmt"
	"testing"
	"time"

	"artfactory/internal/adapters/out/heartbeat"
	"artfactory/internal/core/domain/model/worker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisStoreIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
	store     *heartbeat.RedisStore
}

func TestRedisStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(RedisStoreIntegrationTestSuite))
}

func (s *RedisStoreIntegrationTestSuite) SetupSuite() {
	ctx := s.T().Context()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	s.Require().NoError(err)

	s.client = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.store = heartbeat.NewRedisStore(s.client, time.Minute)
}

func (s *RedisStoreIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.Require().NoError(s.client.Close())
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.T().Context()))
	}
}

func (s *RedisStoreIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(s.T().Context()).Err())
}

func (s *RedisStoreIntegrationTestSuite) TestBeatAndList_RoundTrip() {
	ctx := s.T().Context()
	started := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	seen := started.Add(90 * time.Second)

	s.Require().NoError(s.store.Beat(ctx, worker.Heartbeat{
		WorkerID:    "worker-1",
		Name:        "host-a/1",
		State:       worker.StateBusy,
		CurrentItem: "item-1",
		Processed:   12,
		Failed:      2,
		StartedAt:   started,
		LastSeen:    seen,
	}))

	beats, err := s.store.List(ctx)

	s.Require().NoError(err)
	s.Require().Len(beats, 1)
	hb := beats[0]
	s.Equal("worker-1", hb.WorkerID)
	s.Equal("host-a/1", hb.Name)
	s.Equal(worker.StateBusy, hb.State)
	s.Equal("item-1", hb.CurrentItem)
	s.Equal(int64(12), hb.Processed)
	s.Equal(int64(2), hb.Failed)
	s.True(started.Equal(hb.StartedAt))
	s.True(seen.Equal(hb.LastSeen))

	ttl, err := s.client.TTL(ctx, "artfactory:worker:worker-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStoreIntegrationTestSuite) TestList_PrunesExpiredWorkers() {
	ctx := s.T().Context()
	s.Require().NoError(s.store.Beat(ctx, worker.Heartbeat{WorkerID: "gone", State: worker.StateIdle, LastSeen: time.Now()}))
	s.Require().NoError(s.client.Del(ctx, "artfactory:worker:gone").Err())

	beats, err := s.store.List(ctx)

	s.Require().NoError(err)
	s.Empty(beats)
	members, err := s.client.SMembers(ctx, "artfactory:workers").Result()
	s.Require().NoError(err)
	s.Empty(members)
}

func (s *RedisStoreIntegrationTestSuite) TestPruneExpired_KeepsWorkerThatBeatAgain() {
	ctx := s.T().Context()
	s.Require().NoError(s.store.Beat(ctx, worker.Heartbeat{WorkerID: "back", State: worker.StateIdle, LastSeen: time.Now()}))
	s.Require().NoError(s.client.SAdd(ctx, "artfactory:workers", "gone").Err())

	s.Require().NoError(s.store.PruneExpired(ctx, "back", "gone"))

	members, err := s.client.SMembers(ctx, "artfactory:workers").Result()
	s.Require().NoError(err)
	s.Equal([]string{"back"}, members)
}

func (s *RedisStoreIntegrationTestSuite) TestRemove() {
	ctx := s.T().Context()
	s.Require().NoError(s.store.Beat(ctx, worker.Heartbeat{WorkerID: "w1", State: worker.StateIdle, LastSeen: time.Now()}))
	s.Require().NoError(s.store.Beat(ctx, worker.Heartbeat{WorkerID: "w2", State: worker.StateIdle, LastSeen: time.Now()}))

	s.Require().NoError(s.store.Remove(ctx, "w1"))

	beats, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(beats, 1)
	s.Equal("w2", beats[0].WorkerID)
}
