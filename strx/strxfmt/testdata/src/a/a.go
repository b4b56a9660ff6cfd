package a

import "strx"

func ok() {
	strx.Format(0, "{} and {}", 1, 2)
}

func mismatch() {
	strx.Format(0, "{} and {}", 1) // want `strx.Format template has 2 placeholders but 1 arguments were given`
}

func dynamicTemplateSkipped(tmpl string) {
	strx.Format(0, tmpl, 1, 2, 3)
}
