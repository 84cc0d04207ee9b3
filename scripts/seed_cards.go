package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CardSeed represents one card record from the CSV roster.
type CardSeed struct {
	Owner      string
	Power      uint64
	Value      uint8
	Joker      bool
	Durability int
}

func main() {
	csvPath := "data/cards_seed.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	serverURL := os.Getenv("PLUNDER_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	absPath, err := filepath.Abs(csvPath)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	fmt.Println("=== Plunder Card Seed ===")
	fmt.Printf("CSV file: %s\n", absPath)
	fmt.Printf("Server: %s\n", serverURL)

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		log.Fatalf("CSV file not found: %s", absPath)
	}

	file, err := os.Open(absPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("CSV file is empty or has no data rows")
	}

	fmt.Printf("Found %d cards in CSV\n", len(records)-1)

	// Expected columns: owner, power, value, joker, durability.
	cards := make([]*CardSeed, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 5 {
			log.Printf("Warning: Skipping row %d - insufficient columns", i+2)
			continue
		}

		card := &CardSeed{Owner: record[0]}
		if power, err := strconv.ParseUint(record[1], 10, 64); err == nil {
			card.Power = power
		}
		if value, err := strconv.ParseUint(record[2], 10, 8); err == nil {
			card.Value = uint8(value)
		}
		card.Joker = parseBool(record[3])
		if durability, err := strconv.Atoi(record[4]); err == nil {
			card.Durability = durability
		}
		cards = append(cards, card)
	}

	fmt.Printf("Parsed %d valid cards\n", len(cards))
	fmt.Println("Minting cards...")

	client := &http.Client{Timeout: 10 * time.Second}
	minted := 0
	failed := 0
	startTime := time.Now()

	for _, card := range cards {
		body, err := json.Marshal(map[string]any{
			"owner":      card.Owner,
			"power":      card.Power,
			"value":      card.Value,
			"joker":      card.Joker,
			"durability": card.Durability,
		})
		if err != nil {
			log.Printf("Failed to encode card for %s: %v", card.Owner, err)
			failed++
			continue
		}

		resp, err := client.Post(serverURL+"/admin/cards", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("Failed to mint card for %s: %v", card.Owner, err)
			failed++
			continue
		}
		if resp.StatusCode != http.StatusCreated {
			log.Printf("Mint rejected for %s: %s", card.Owner, resp.Status)
			failed++
		} else {
			minted++
		}
		resp.Body.Close()

		if minted%100 == 0 && minted > 0 {
			fmt.Printf("Progress: %d/%d cards minted\n", minted, len(cards))
		}
	}

	duration := time.Since(startTime)

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Successfully minted: %d cards\n", minted)
	if failed > 0 {
		fmt.Printf("Failed to mint: %d cards\n", failed)
	}
	fmt.Printf("Time taken: %s\n", duration)
}

func parseBool(s string) bool {
	return strings.ToLower(s) == "true" || s == "1"
}
