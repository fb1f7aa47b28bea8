// Command notsxwithoutjsx runs the analyzer standalone, go vet style:
//
//	notsxwithoutjsx -severity=warn ./...
package main

import (
	"github.com/Sayanli/tsxlint/analyzer"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	// -severity and -include are registered by the analyzer itself
	singlechecker.Main(analyzer.NewAnalyzer("error", "*.tsx"))
}
