// Package strx is a minimal stand-in for github.com/corebase-go/corebase/strx
// used only so strxfmt's analysistest fixture has a real "Format" function
// whose package path, "strx", the analyzer matches against.
package strx

type String struct{}

func Format(ref int, tmpl string, args ...any) (*String, error) {
	return nil, nil
}
