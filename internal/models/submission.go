package models

import "time"

type DeviceType string

const (
	DeviceMobile  DeviceType = "Mobile"
	DeviceDesktop DeviceType = "Desktop"
)

// DeviceInfo is the parsed user agent stored next to the coarse DeviceType.
type DeviceInfo struct {
	UserAgent string `json:"userAgent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Mobile    bool   `json:"mobile"`
}

// SessionSubmission is the document handed to the response store. CompletedAt
// stays nil on the client; the store assigns it.
type SessionSubmission struct {
	SubmissionID   string           `json:"submissionId"`
	UserID         string           `json:"userId"`
	Demographics   Demographics     `json:"demographics"`
	Responses      []ResponseRecord `json:"responses"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	DeviceType     DeviceType       `json:"deviceType"`
	Device         DeviceInfo       `json:"device"`
	ValidationCode string           `json:"validationCode"`
}
