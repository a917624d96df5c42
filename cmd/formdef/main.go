// Command formdef prints the form definitions served by /api/v1/meta.
//
//	formdef                  all definitions
//	formdef delivery-note    one definition with its defaults
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"rfidstock/internal/domain/documents/kinds"
	"rfidstock/internal/metadata"
)

type definition struct {
	metadata.EntityDef
	Defaults map[string]any `json:"defaults"`
}

func main() {
	registry := kinds.Registry(kinds.All())

	var out any
	if len(os.Args) > 1 {
		def, ok := registry.Get(os.Args[1])
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown document kind %q\n", os.Args[1])
			os.Exit(2)
		}
		out = definition{EntityDef: def, Defaults: metadata.Defaults(def, time.Now())}
	} else {
		out = registry.List()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
