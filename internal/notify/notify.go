// Package notify 把邮件通知写入 rabbitmq，由 mail worker 负责真正发送
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dienstwunsch/backend/internal/config"
	"github.com/dienstwunsch/backend/internal/domain"
)

// Channel 是 *amqp.Channel 中用到的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch           Channel
	queue        string
	adminAddress string
	timeout      time.Duration
}

func NewPublisher(ch Channel, cfg *config.Config) *Publisher {
	return &Publisher{
		ch:           ch,
		queue:        cfg.RabbitMQ.Queue,
		adminAddress: cfg.Email.AdminAddress,
		timeout:      time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
	}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// 请求结束后消息仍然需要发出去
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func mailData(req *domain.ShiftRequest) domain.ShiftRequestMailData {
	data := domain.ShiftRequestMailData{
		UserName:  req.OwnerName,
		Date:      req.Date.String(),
		ShiftType: string(req.ShiftType),
	}
	if req.Remarks != nil {
		data.Remarks = *req.Remarks
	}
	return data
}

func (p *Publisher) notifyAdmin(ctx context.Context, mailType string, req *domain.ShiftRequest) error {
	// 没有配置管理员邮箱时不发送通知
	if p.adminAddress == "" {
		return nil
	}

	return p.Publish(ctx, domain.MailMessage{
		Type: mailType,
		To:   p.adminAddress,
		Data: mailData(req),
	})
}

func (p *Publisher) ShiftRequestSubmitted(ctx context.Context, req *domain.ShiftRequest) error {
	return p.notifyAdmin(ctx, domain.MailTypeShiftRequestSubmitted, req)
}

func (p *Publisher) ShiftRequestWithdrawn(ctx context.Context, req *domain.ShiftRequest) error {
	return p.notifyAdmin(ctx, domain.MailTypeShiftRequestWithdrawn, req)
}

type PendingLister interface {
	GetAllShiftRequests(ctx context.Context, filter domain.ShiftRequestFilter) ([]*domain.ShiftRequest, error)
}

// PublishPendingDigest 把所有待审核的愿望汇总成一封邮件发给管理员，
// 返回汇总的数量，没有待审核的愿望时不发送
func (p *Publisher) PublishPendingDigest(ctx context.Context, lister PendingLister) (int, error) {
	if p.adminAddress == "" {
		return 0, nil
	}

	pending := domain.StatusPending
	requests, err := lister.GetAllShiftRequests(ctx, domain.ShiftRequestFilter{Status: &pending})
	if err != nil {
		return 0, err
	}

	if len(requests) == 0 {
		return 0, nil
	}

	data := domain.PendingDigestMailData{
		Count:    len(requests),
		Requests: make([]domain.ShiftRequestMailData, 0, len(requests)),
	}
	for _, req := range requests {
		data.Requests = append(data.Requests, mailData(req))
	}

	if err := p.Publish(ctx, domain.MailMessage{
		Type: domain.MailTypePendingDigest,
		To:   p.adminAddress,
		Data: data,
	}); err != nil {
		return 0, err
	}

	return len(requests), nil
}
