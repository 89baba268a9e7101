//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"podium/internal/platform/kafka/producer"
	"podium/internal/registry/models"
	"podium/internal/registry/publisher"
	"podium/internal/registry/relay"
	"podium/internal/registry/service"
	"podium/internal/registry/store"
	id "podium/pkg/domain"
	"podium/pkg/testutil/containers"
)

type KafkaRelaySuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestKafkaRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaRelaySuite))
}

func (s *KafkaRelaySuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	cfg := producer.DefaultConfig()
	cfg.Brokers = s.kafka.Brokers
	prod, err := producer.New(cfg, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *KafkaRelaySuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

// Registry mutations reach the topic in commit order, keyed by athlete.
func (s *KafkaRelaySuite) TestRelayDeliversRegistryEvents() {
	ctx := context.Background()
	topic := "test-registry-events"
	s.Require().NoError(s.producer.EnsureTopic(ctx, topic, 1, 1))

	const owner id.CallerID = "registry-owner"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	memory := store.NewInMemory()
	svc, err := service.New(owner, memory, memory)
	s.Require().NoError(err)

	athleteID, err := svc.RegisterAthlete(ctx, "alice", &models.RegisterAthleteRequest{Name: "Alice", Sport: "Running", Age: 30}, now)
	s.Require().NoError(err)
	_, err = svc.AddAchievement(ctx, "alice", athleteID, &models.AddAchievementRequest{Title: "5k PB"}, now)
	s.Require().NoError(err)
	s.Require().NoError(svc.Verify(ctx, owner, athleteID, id.AthleteItself, now))

	worker := relay.New(memory, publisher.NewKafka(s.producer, topic))
	n, err := worker.PollOnce(ctx)
	s.Require().NoError(err)
	s.Equal(3, n)

	consumer, err := s.kafka.NewConsumer("test-registry-relay", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	records := s.kafka.CollectRecords(ctx, consumer, 3, 15*time.Second)
	s.Require().Len(records, 3)

	want := []models.EventType{models.EventAthleteRegistered, models.EventAchievementAdded, models.EventAthleteVerified}
	for i, record := range records {
		s.Equal("1", string(record.Key))
		var event models.Event
		s.Require().NoError(json.Unmarshal(record.Value, &event))
		s.Equal(want[i], event.Type)
		s.Equal(uint64(i+1), event.Seq)
	}
}
