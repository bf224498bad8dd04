package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/OpenFloor/OF-Backend/internal/auth"
	"github.com/OpenFloor/OF-Backend/internal/db"
	"github.com/OpenFloor/OF-Backend/internal/debate"
	"github.com/OpenFloor/OF-Backend/internal/market"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var (
	filePath = flag.String("file", "seed.yaml", "Path to the YAML fixture file")
	dryRun   = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
)

// Fixture contract: users are created first, then debates referencing them
// by username, then each debate's opening arguments.
type Fixture struct {
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"users"`
	Debates []struct {
		Resolution string   `yaml:"resolution"`
		Pro        string   `yaml:"pro"` // username
		Con        string   `yaml:"con"` // username
		Tags       []string `yaml:"tags"`
		Arguments  []struct {
			Side    string `yaml:"side"`
			Content string `yaml:"content"`
		} `yaml:"arguments"`
	} `yaml:"debates"`
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to read fixture: %v", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		log.Fatalf("Failed to parse fixture: %v", err)
	}

	for _, d := range fixture.Debates {
		if d.Pro == d.Con {
			log.Fatalf("Debate %q: pro and con are the same user", d.Resolution)
		}
	}

	fmt.Printf("Loaded %d users, %d debates from %s\n", len(fixture.Users), len(fixture.Debates), *filePath)
	if *dryRun {
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	db.Connect()
	auth.Init()
	debate.Init()
	market.Init()

	userIDs := make(map[string]string)
	for _, u := range fixture.Users {
		var existing auth.User
		if err := db.DB.First(&existing, "username = ?", u.Username).Error; err == nil {
			userIDs[u.Username] = existing.UserID
			fmt.Printf("  user %s exists, skipping\n", u.Username)
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("bcrypt: %v", err)
		}
		user := auth.User{
			UserID:         uuid.NewString(),
			Username:       u.Username,
			HashedPassword: string(hashed),
		}
		if err := db.DB.Create(&user).Error; err != nil {
			log.Fatalf("Failed to create user %s: %v", u.Username, err)
		}
		userIDs[u.Username] = user.UserID
		fmt.Printf("  created user %s\n", u.Username)
	}

	for _, d := range fixture.Debates {
		proID, ok := userIDs[d.Pro]
		if !ok {
			log.Fatalf("Debate %q: unknown pro user %q", d.Resolution, d.Pro)
		}
		conID, ok := userIDs[d.Con]
		if !ok {
			log.Fatalf("Debate %q: unknown con user %q", d.Resolution, d.Con)
		}

		var existing debate.Debate
		if err := db.DB.First(&existing, "resolution = ?", d.Resolution).Error; err == nil {
			fmt.Printf("  debate %q exists, skipping\n", d.Resolution)
			continue
		}

		row := debate.Debate{
			ID:         uuid.NewString(),
			Resolution: d.Resolution,
			ProUserID:  proID,
			ConUserID:  conID,
			Status:     "open",
			Round:      1,
			Tags:       d.Tags,
		}
		if err := db.DB.Create(&row).Error; err != nil {
			log.Fatalf("Failed to create debate %q: %v", d.Resolution, err)
		}

		for _, a := range d.Arguments {
			authorID := proID
			if a.Side == "con" {
				authorID = conID
			}
			arg := debate.Argument{
				ID:       uuid.NewString(),
				DebateID: row.ID,
				AuthorID: authorID,
				Side:     a.Side,
				Round:    1,
				Content:  a.Content,
				Status:   "published",
			}
			if err := db.DB.Create(&arg).Error; err != nil {
				log.Fatalf("Failed to create argument for %q: %v", d.Resolution, err)
			}
		}
		fmt.Printf("  created debate %q with %d arguments\n", d.Resolution, len(d.Arguments))
	}

	fmt.Println("Seed complete.")
}
