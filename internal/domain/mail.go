package domain

const (
	MailTypeShiftRequestSubmitted = "shift_request_submitted"
	MailTypeShiftRequestWithdrawn = "shift_request_withdrawn"
	MailTypePendingDigest         = "pending_digest"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type ShiftRequestMailData struct {
	UserName  string `json:"userName"`
	Date      string `json:"date"`
	ShiftType string `json:"shiftType"`
	Remarks   string `json:"remarks"`
}

type PendingDigestMailData struct {
	Count    int                    `json:"count"`
	Requests []ShiftRequestMailData `json:"requests"`
}
