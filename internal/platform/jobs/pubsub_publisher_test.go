package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/petshop-baronesa/api/internal/services"
)

func newFakeTopic(t *testing.T) (*pstest.Server, *pubsub.Topic) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { srv.Close() })

	client, err := pubsub.NewClient(context.Background(), "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(context.Background(), "store-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	return srv, topic
}

func TestPublishEventCarriesPayloadAndAttributes(t *testing.T) {
	srv, topic := newFakeTopic(t)
	publisher, err := NewPubSubEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubEventPublisher: %v", err)
	}

	event := services.StoreEvent{
		ID:        "evt_test",
		Type:      services.EventOrderSubmitted,
		UserID:    "user-1",
		Summary:   "Olá! Gostaria de fazer um pedido",
		Total:     79.80,
		CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	if _, err := publisher.PublishEvent(context.Background(), event); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	msg := messages[0]

	var decoded services.StoreEvent
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.ID != event.ID || decoded.Total != event.Total {
		t.Fatalf("payload does not round-trip: %#v", decoded)
	}
	if got := msg.Attributes["eventType"]; got != services.EventOrderSubmitted {
		t.Fatalf("eventType attribute %q, want %q", got, services.EventOrderSubmitted)
	}
	if got := msg.Attributes["userId"]; got != "user-1" {
		t.Fatalf("userId attribute %q, want user-1", got)
	}
	if _, ok := msg.Attributes["reference"]; ok {
		t.Fatal("empty reference must not become an attribute")
	}
}

func TestNewPubSubEventPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubEventPublisher(nil); err == nil {
		t.Fatal("expected an error for a nil topic")
	}
}
