package workdone

import "strings"

// Notification is one message of a work-done progress stream. It is one of
// Begin, Report or End.
type Notification interface {
	isNotification()
}

// Begin starts a unit of work. A nil Percentage means the work is
// indeterminate.
type Begin struct {
	Title       string
	Cancellable bool
	Percentage  *uint32
	Message     string
}

// Report updates a running unit of work. Once a Report carries a Percentage
// the indicator stays determinate.
type Report struct {
	Percentage *uint32
	Message    string
}

// End finishes a unit of work.
type End struct{}

func (Begin) isNotification()  {}
func (Report) isNotification() {}
func (End) isNotification()    {}

// Percent is a helper for building notifications with a percentage.
func Percent(p uint32) *uint32 {
	return &p
}

// kind names the notification for logs and span attributes.
func kind(n Notification) string {
	switch n.(type) {
	case Begin:
		return "begin"
	case Report:
		return "report"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// applyUpdate mirrors the percentage and message of a Begin or Report onto an
// indicator. A missing percentage switches the indicator to indeterminate only
// when resetMode is set (Begin); a Report without one keeps the current mode.
func applyUpdate(ind Indicator, percentage *uint32, message string, resetMode bool) {
	if percentage == nil {
		if resetMode {
			ind.SetIndeterminate(true)
		}
	} else {
		ind.SetIndeterminate(false)
		p := *percentage
		if p > 100 {
			p = 100
		}
		ind.SetFraction(float64(p) / 100)
	}
	if strings.TrimSpace(message) != "" {
		ind.SetText(message)
	}
}
