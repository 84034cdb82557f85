package theme

import (
	"fmt"

	"github.com/fatih/color"
)

// Banner returns the startup banner.
func Banner() string {
	cyan := color.New(color.FgCyan).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	return "  ◆ " + magenta("CURIO") + " ◆\n" +
		cyan("  curated links, images and posts, plus a tweet inbox\n") +
		yellow("  ────────────────────────────────────────────────\n")
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
