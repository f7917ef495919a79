// Package mailer 把队列中的 domain.MailMessage 渲染成可以发送的邮件
package mailer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/dienstwunsch/backend/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrUnsupportedType = errors.New("unsupported mail type")

type mailKind struct {
	subject  string
	template string
	newData  func() any
}

var kinds = map[string]mailKind{
	domain.MailTypeShiftRequestSubmitted: {
		subject:  "Dienstwunsch - Neuer Wunsch eingereicht",
		template: "shift_request_submitted.html",
		newData:  func() any { return &domain.ShiftRequestMailData{} },
	},
	domain.MailTypeShiftRequestWithdrawn: {
		subject:  "Dienstwunsch - Wunsch zurückgezogen",
		template: "shift_request_withdrawn.html",
		newData:  func() any { return &domain.ShiftRequestMailData{} },
	},
	domain.MailTypePendingDigest: {
		subject:  "Dienstwunsch - Offene Wünsche",
		template: "pending_digest.html",
		newData:  func() any { return &domain.PendingDigestMailData{} },
	},
}

// 队列中 Data 的具体类型取决于 Type，所以先保留原始 JSON
type envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

// Build 解析队列消息并生成邮件。返回的错误都不值得重试
func Build(body []byte, from string) (*mail.Msg, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode mail message: %w", err)
	}

	kind, ok := kinds[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}

	data := kind.newData()
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.Type, err)
		}
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, err
	}
	if err := msg.To(env.To); err != nil {
		return nil, err
	}
	msg.Subject(kind.subject)

	if err := msg.SetBodyHTMLTemplate(templates.Lookup(kind.template), data); err != nil {
		return nil, err
	}

	return msg, nil
}
