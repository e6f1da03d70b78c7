//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

func main() {
	data, err := schema.GenerateWizardJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll("schemas", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/wizard-v0.json", data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/wizard-v0.json")
}
