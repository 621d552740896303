package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/docuchat/billing/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "seed-plans",
		Description: "Seed the pricing plan catalog into Postgres",
		Run:         internal.SeedPricingPlans,
	},
	{
		Name:        "onboard-organization",
		Description: "Create a new organization",
		Run:         internal.OnboardOrganization,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		orgName      string
		orgEmail     string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&orgName, "org-name", "", "Organization name for onboarding")
	flag.StringVar(&orgEmail, "org-email", "", "Billing email for onboarding")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-24s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	if orgName != "" {
		os.Setenv("ORG_NAME", orgName)
	}
	if orgEmail != "" {
		os.Setenv("ORG_EMAIL", orgEmail)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
