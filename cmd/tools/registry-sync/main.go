// cmd/tools/registry-sync/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"chunk-auditor/pkg/registry"
)

const defaultRegistryPath = "configs/assessor-registry.json"

func main() {
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	syncPath := syncCmd.String("path", defaultRegistryPath, "Path to registry file")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		syncCmd.Parse(os.Args[2:])
		reg := registry.Default()
		if err := registry.Validate(reg); err != nil {
			fmt.Printf("Generated registry is invalid: %v\n", err)
			os.Exit(1)
		}
		if err := registry.Save(reg, *syncPath); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry written: %s (%d assessors)\n", *syncPath, len(reg.Assessors))

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.Load(*validatePath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		if err := registry.Validate(reg); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d assessors.\n", len(reg.Assessors))

	case "help":
		fallthrough
	default:
		help()
	}
}

func help() {
	fmt.Print(`
Usage: registry-sync <command> [flags]

Commands:
  sync     Regenerate the registry file from the compiled assessor definitions
  validate Validate an existing registry file
  help     Show this help message

Examples:
  registry-sync sync -path configs/assessor-registry.json
  registry-sync validate -path configs/assessor-registry.json

Use 'registry-sync <command> -h' for more information about a command.

`)
}
