package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"homeheroes/internal/config"
	"homeheroes/internal/models"
	"homeheroes/internal/store"
)

// backup exports and imports the family document as JSON, for moving a
// family between store backends or keeping an offline copy.
func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportOutput := exportCmd.String("output", "", "Output file path (default: family_YYYYMMDD_HHMMSS.json)")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importInput := importCmd.String("input", "", "Input file path (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	sqlStore, err := store.Open(cfg.StoreType, cfg.DatabasePath, cfg.DatabaseURL, cfg.StorePollInterval)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer sqlStore.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(sqlStore, cfg.FamilyKey, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(sqlStore, cfg.FamilyKey, *importInput)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(st store.Store, key, output string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updates, err := st.Subscribe(ctx, key)
	if err != nil {
		log.Fatalf("Failed to read document: %v", err)
	}
	snap := <-updates
	if snap.Err != nil {
		log.Fatalf("Failed to read document: %v", snap.Err)
	}
	if !snap.Exists {
		log.Fatalf("No family document found under key %q", key)
	}

	if output == "" {
		output = fmt.Sprintf("family_%s.json", time.Now().Format("20060102_150405"))
	}

	data, err := json.MarshalIndent(snap.State, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode document: %v", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", output, err)
	}
	fmt.Printf("Exported family document to %s\n", output)
}

func handleImport(st store.Store, key, input string) {
	data, err := os.ReadFile(input)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", input, err)
	}

	var state models.FamilyState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Fatalf("Failed to parse %s: %v", input, err)
	}
	for i := range state.Players {
		if err := state.Players[i].Validate(); err != nil {
			log.Fatalf("Invalid document: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := st.CreateIfAbsent(ctx, key, state); err != nil {
		log.Fatalf("Failed to create document: %v", err)
	}
	if err := st.Write(ctx, key, state); err != nil {
		log.Fatalf("Failed to write document: %v", err)
	}
	fmt.Printf("Imported family document from %s\n", input)
}

func printUsage() {
	fmt.Println("Usage: backup <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  export    Export the family document to a JSON file")
	fmt.Println("  import    Import a family document from a JSON file")
}
