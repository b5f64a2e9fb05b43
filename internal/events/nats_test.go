package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/miradorstack/review-intel/internal/models"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	failOn   string
	flushed  int
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if subject == f.failOn {
		return errors.New("slow consumer")
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	f.flushed++
	return nil
}

func TestNATSPublisherPublishesSpikes(t *testing.T) {
	conn := &fakeConn{}
	pub := NewNATSPublisher(conn, "")
	pub.now = func() time.Time { return time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC) }

	prev := 2
	err := pub.PublishSpikes(context.Background(), "b1", []models.SpikeEvent{
		{TopicID: "service", Window: "2024-W07", Previous: &prev, Current: 5, Delta: 3, Flagged: true},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(conn.subjects) != 1 || conn.subjects[0] != "review-intel.spikes.service" || conn.flushed != 1 {
		t.Fatalf("unexpected publish %+v", conn)
	}
	var msg SpikeMessage
	if err := json.Unmarshal(conn.payloads[0], &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.BusinessID != "b1" || msg.Delta != 3 || msg.Previous == nil || *msg.Previous != 2 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestNATSPublisherJoinsFailures(t *testing.T) {
	conn := &fakeConn{failOn: "alerts.food"}
	pub := NewNATSPublisher(conn, "alerts")
	err := pub.PublishSpikes(context.Background(), "", []models.SpikeEvent{
		{TopicID: "food", Window: "2024-W07", Delta: 1},
		{TopicID: "service", Window: "2024-W07", Delta: 2},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(conn.subjects) != 1 || conn.subjects[0] != "alerts.service" {
		t.Fatalf("remaining spikes should still be published: %+v", conn.subjects)
	}
	if err := pub.PublishSpikes(context.Background(), "", nil); err != nil || conn.flushed != 1 {
		t.Fatalf("empty batch should be a no-op")
	}
}

func TestSubjectSanitizesTopic(t *testing.T) {
	pub := NewNATSPublisher(&fakeConn{}, "spikes")
	if got := pub.Subject("front desk.*"); got != "spikes.front_desk__" {
		t.Fatalf("unexpected subject %q", got)
	}
}
