// Card data tooling: exports the built-in base set as a JSON file usable via
// game.card_data_path, and validates existing card data files against the
// registry's load rules.
//
// Usage:
//
//	go run scripts/carddata.go -export cards.json
//	go run scripts/carddata.go -check cards.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tcgframework/table-server-go/internal/cards"
)

var (
	exportPath = flag.String("export", "", "write the built-in base set to this JSON file")
	checkPath  = flag.String("check", "", "validate an existing card data JSON file")
)

func main() {
	flag.Parse()

	switch {
	case *exportPath != "":
		if err := exportBaseSet(*exportPath); err != nil {
			log.Fatalf("export failed: %v", err)
		}
		fmt.Printf("Wrote %d definitions to %s\n", len(cards.BaseSet()), *exportPath)
	case *checkPath != "":
		n, err := checkFile(*checkPath)
		if err != nil {
			log.Fatalf("%s: %v", *checkPath, err)
		}
		fmt.Printf("%s: %d definitions OK\n", *checkPath, n)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func exportBaseSet(path string) error {
	data, err := json.MarshalIndent(cards.BaseSet(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// checkFile loads the file through the same path the engine uses, so a file
// that passes here will load at startup.
func checkFile(path string) (int, error) {
	defs, err := cards.LoadFile(path)
	if err != nil {
		return 0, err
	}

	reg := cards.NewRegistry()
	if err := reg.Load(defs); err != nil {
		return 0, err
	}
	return reg.Count(), nil
}
