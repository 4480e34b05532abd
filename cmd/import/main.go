// Command import seeds the content_items table from a pre-generated JSON
// corpus. With -generate-ai it fills in missing AI responses through
// Gemini before writing, so a corpus exported with human text only can
// still be made playable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"turing-backend/internal/database"
	"turing-backend/internal/models"
	"turing-backend/internal/repository"
	"turing-backend/internal/services"
)

func main() {
	file := flag.String("file", "content.json", "path to the JSON corpus")
	generateAI := flag.Bool("generate-ai", false, "fill missing AI responses via Gemini")
	flag.Parse()

	godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("✗ DATABASE_URL is not set")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("✗ Failed to read corpus file: %v", err)
	}

	var items []models.ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Fatalf("✗ Failed to parse corpus file: %v", err)
	}
	log.Printf("✓ Parsed %d items from %s", len(items), *file)

	ctx := context.Background()

	var gen *services.ResponseGenService
	if *generateAI {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			log.Fatal("✗ GEMINI_API_KEY is required with -generate-ai")
		}
		gen, err = services.NewResponseGenService(apiKey)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer gen.Close()
		log.Println("✓ Gemini client initialized")
	}

	pool, err := database.NewPostgresPool(databaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}

	repo := repository.NewContentRepo(pool)

	var imported, generated, skipped int
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Prompt) == "" {
			skipped++
			continue
		}

		if gen != nil && strings.TrimSpace(item.AI) == "" {
			genCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
			text, genErr := gen.Generate(genCtx, item.Prompt)
			cancel()
			if genErr != nil {
				log.Printf("✗ AI response generation failed for %s: %v", item.ID, genErr)
				skipped++
				continue
			}
			item.AI = text
			generated++
		}

		if err := repo.Upsert(ctx, item); err != nil {
			log.Fatalf("✗ Failed to upsert item %s: %v", item.ID, err)
		}
		imported++
	}

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("✗ Failed to count items: %v", err)
	}

	log.Printf("✓ Imported %d items (%d AI responses generated, %d skipped); table now holds %d", imported, generated, skipped, total)
}
