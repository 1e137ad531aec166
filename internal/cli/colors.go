package cli

// ANSI escape sequences used by the commands' output
const (
	reset = "\033[0m"

	bold = "\033[1m"
	dim  = "\033[2m"

	red     = "\033[31m"
	green   = "\033[32m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	white   = "\033[37m"
)

func paint(style, text string) string {
	return style + text + reset
}

func FormatHeader(text string) string  { return paint(cyan+bold, text) }
func FormatTitle(text string) string   { return paint(magenta+bold, text) }
func FormatSuccess(text string) string { return paint(green+bold, text) }
func FormatError(text string) string   { return paint(red+bold, text) }
func FormatDim(text string) string     { return paint(dim, text) }

// FormatLabelValue renders "label value" with the label dimmed to cyan
func FormatLabelValue(label, value string) string {
	return paint(cyan, label) + " " + paint(white+bold, value)
}
