package submission

import (
	"strings"

	"rumble-survey/internal/models"

	"github.com/mssola/useragent"
)

// ClassifyDevice maps a user agent to Mobile when it contains "mobi" in any
// case, Desktop otherwise.
func ClassifyDevice(userAgent string) models.DeviceType {
	if strings.Contains(strings.ToLower(userAgent), "mobi") {
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}

// DescribeDevice parses userAgent into the descriptor stored with the submission.
func DescribeDevice(userAgent string) models.DeviceInfo {
	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	if version != "" {
		browser += " " + version
	}
	return models.DeviceInfo{
		UserAgent: userAgent,
		Browser:   browser,
		OS:        ua.OS(),
		Platform:  ua.Platform(),
		Mobile:    ua.Mobile(),
	}
}
