package logging

// Icons prefixed to pretty output lines.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconRunning = "◐"
	IconBullet  = "•"
)
