// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command strxvet runs the strxfmt analyzer standalone, so it can be
// wired into `go vet -vettool=$(which strxvet)` the same way any other
// custom analyzer in the ecosystem is invoked.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/corebase-go/corebase/strx/strxfmt"
)

func main() {
	singlechecker.Main(strxfmt.Analyzer)
}
