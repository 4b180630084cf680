package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/procure-marine/procure-marine-web/internal/catalog"
	"github.com/procure-marine/procure-marine-web/internal/email"
)

func main() {
	checkCatalogCmd := flag.NewFlagSet("check-catalog", flag.ExitOnError)
	dataDir := checkCatalogCmd.String("data", "./data", "Directory containing categories.json and products.json")

	testEmailCmd := flag.NewFlagSet("test-email", flag.ExitOnError)
	to := testEmailCmd.String("to", "", "Recipient address for the test message")

	if len(os.Args) < 2 {
		fmt.Println("expected 'check-catalog' or 'test-email' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check-catalog":
		checkCatalogCmd.Parse(os.Args[2:])
		checkCatalog(*dataDir)
	case "test-email":
		testEmailCmd.Parse(os.Args[2:])
		if *to == "" {
			fmt.Println("recipient address is required")
			testEmailCmd.PrintDefaults()
			os.Exit(1)
		}
		testEmail(*to)
	default:
		fmt.Println("expected 'check-catalog' or 'test-email' subcommand")
		os.Exit(1)
	}
}

// checkCatalog loads the data files the same way the server does, so a
// broken product entry is caught before deploy rather than at startup.
func checkCatalog(dataDir string) {
	cat, err := catalog.Load(dataDir)
	if err != nil {
		log.Fatalf("Catalog check failed: %v", err)
	}

	slugs := make(map[string]string)
	for _, p := range cat.Products() {
		if prev, dup := slugs[p.Slug]; dup {
			log.Fatalf("Duplicate product slug %q (products %s and %s)", p.Slug, prev, p.ID)
		}
		slugs[p.Slug] = p.ID
		for _, catID := range p.CategoryIDs {
			found := false
			for _, c := range cat.Categories() {
				if c.ID == catID {
					found = true
					break
				}
				for _, sub := range c.Subcategories {
					if sub.ID == catID {
						found = true
						break
					}
				}
			}
			if !found {
				log.Fatalf("Product %s references unknown category %q", p.ID, catID)
			}
		}
	}

	fmt.Printf("Catalog OK: %d products, %d categories, %d brands.\n",
		len(cat.Products()), len(cat.Categories()), len(cat.Brands()))
}

// testEmail sends one message through the configured provider to verify
// the API key and sender domain.
func testEmail(to string) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		log.Fatal("RESEND_API_KEY is not set")
	}

	client := email.NewClient(apiKey)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	from := os.Getenv("ORDER_FROM")
	if from == "" {
		from = "Procure Marine Orders <orders@procuremarine.com>"
	}

	id, err := client.Send(ctx, email.Message{
		From:    from,
		To:      []string{to},
		Subject: "Procure Marine test message",
		HTML:    "<p>This is a test message from the Procure Marine storefront.</p>",
	})
	if err != nil {
		log.Fatalf("Failed to send test email: %v", err)
	}

	fmt.Printf("Test email sent, message id %s.\n", id)
}
