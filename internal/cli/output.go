package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/jwalitptl/formkit/internal/indicator"
	"github.com/jwalitptl/formkit/pkg/strength"
	"github.com/jwalitptl/formkit/pkg/validator"
)

var (
	scoreColors = [strength.MaxScore]*color.Color{
		color.New(color.FgRed),
		color.New(color.FgHiRed),
		color.New(color.FgYellow),
		color.New(color.FgBlue),
		color.New(color.FgGreen),
	}
	passedColor = color.New(color.FgGreen)
	failedColor = color.New(color.FgHiBlack)
	errorColor  = color.New(color.FgRed, color.Bold)
	okColor     = color.New(color.FgGreen, color.Bold)
	dimColor    = color.New(color.Faint)
)

func scoreColor(score int) *color.Color {
	if score < 1 || score > strength.MaxScore {
		return dimColor
	}
	return scoreColors[score-1]
}

// printMeter draws the strength bar, its label line and one line per rule.
func printMeter(w io.Writer, v indicator.View) {
	bar := strings.Repeat("█", v.Score) + strings.Repeat("░", strength.MaxScore-v.Score)
	c := scoreColor(v.Score)
	fmt.Fprintf(w, "%s %s %d/%d\n", c.Sprint(bar), c.Sprint(v.Text), v.Score, strength.MaxScore)
	for _, ch := range v.Checks {
		if ch.Passed {
			fmt.Fprintln(w, "  "+passedColor.Sprint(ch.Line()))
		} else {
			fmt.Fprintln(w, "  "+failedColor.Sprint(ch.Line()))
		}
	}
}

func printFieldErrors(w io.Writer, errs validator.FieldErrors) {
	for _, e := range errs {
		fmt.Fprintf(w, "%s %s: %s\n", errorColor.Sprint("✗"), e.Field, e.Message)
	}
}
