// Command goseq prepares time-series tables for sequence-to-sequence models
// and replays saved dataset configurations on new data.
//
// Usage:
//
//	goseq process --run run.yaml
//	goseq replay  --run run.yaml --inference --out processed.csv
//	goseq report  --run run.yaml --predictions predictions.csv
//	goseq inspect --config-dir models/load-v1
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
