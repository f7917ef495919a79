package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dienstwunsch/backend/internal/config"
	"github.com/dienstwunsch/backend/internal/domain"
)

type published struct {
	key string
	msg amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.published = append(f.published, published{key: key, msg: msg})
	return nil
}

type fakeLister struct {
	requests []*domain.ShiftRequest
	filter   domain.ShiftRequestFilter
}

func (f *fakeLister) GetAllShiftRequests(_ context.Context, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error) {
	f.filter = filter
	return f.requests, nil
}

func testConfig(admin string) *config.Config {
	cfg := &config.Config{}
	cfg.RabbitMQ.Queue = "email_queue"
	cfg.RabbitMQ.PublishTimeout = 5
	cfg.Email.AdminAddress = admin
	return cfg
}

func testRequest() *domain.ShiftRequest {
	remarks := "Arzttermin am Vormittag"
	return &domain.ShiftRequest{
		ID:        "req-1",
		OwnerID:   "u1",
		OwnerName: "Anna",
		Date:      domain.Date{Year: 2026, Month: time.October, Day: 20},
		ShiftType: domain.ShiftLate,
		Remarks:   &remarks,
		Status:    domain.StatusPending,
	}
}

func decode(t *testing.T, body []byte) (domain.MailMessage, map[string]any) {
	t.Helper()
	var msg domain.MailMessage
	require.NoError(t, json.Unmarshal(body, &msg))
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	return msg, data
}

func TestShiftRequestSubmitted(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, testConfig("leitung@example.org"))

	require.NoError(t, p.ShiftRequestSubmitted(context.Background(), testRequest()))
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, "email_queue", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)

	msg, data := decode(t, got.msg.Body)
	assert.Equal(t, domain.MailTypeShiftRequestSubmitted, msg.Type)
	assert.Equal(t, "leitung@example.org", msg.To)
	assert.Equal(t, "Anna", data["userName"])
	assert.Equal(t, "2026-10-20", data["date"])
	assert.Equal(t, "Spät", data["shiftType"])
	assert.Equal(t, "Arzttermin am Vormittag", data["remarks"])
}

func TestShiftRequestWithdrawn(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, testConfig("leitung@example.org"))

	req := testRequest()
	req.Remarks = nil
	require.NoError(t, p.ShiftRequestWithdrawn(context.Background(), req))

	msg, data := decode(t, ch.published[0].msg.Body)
	assert.Equal(t, domain.MailTypeShiftRequestWithdrawn, msg.Type)
	assert.Equal(t, "", data["remarks"])
}

func TestNoAdminAddressSkipsPublishing(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, testConfig(""))

	require.NoError(t, p.ShiftRequestSubmitted(context.Background(), testRequest()))
	n, err := p.PublishPendingDigest(context.Background(), &fakeLister{requests: []*domain.ShiftRequest{testRequest()}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, ch.published)
}

func TestPublishErrorIsReturned(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisher(ch, testConfig("leitung@example.org"))

	err := p.ShiftRequestSubmitted(context.Background(), testRequest())
	require.EqualError(t, err, "channel closed")
}

func TestPublishSurvivesCanceledContext(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, testConfig("leitung@example.org"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.ShiftRequestSubmitted(ctx, testRequest()))
	assert.Len(t, ch.published, 1)
}

func TestPublishPendingDigest(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, testConfig("leitung@example.org"))

	second := testRequest()
	second.OwnerName = "Jonas"
	lister := &fakeLister{requests: []*domain.ShiftRequest{testRequest(), second}}

	n, err := p.PublishPendingDigest(context.Background(), lister)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NotNil(t, lister.filter.Status)
	assert.Equal(t, domain.StatusPending, *lister.filter.Status)

	msg, data := decode(t, ch.published[0].msg.Body)
	assert.Equal(t, domain.MailTypePendingDigest, msg.Type)
	assert.EqualValues(t, 2, data["count"])
	assert.Len(t, data["requests"], 2)
}

func TestPublishPendingDigestWithoutPending(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, testConfig("leitung@example.org"))

	n, err := p.PublishPendingDigest(context.Background(), &fakeLister{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, ch.published)
}
