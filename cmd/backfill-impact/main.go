package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// Recomputes every argument's impact_score and mind_change_count from the
// stance ledger. Normally attribution keeps these in sync; this repairs rows
// after manual data fixes or partial migrations.

var (
	dsn     = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun  = flag.Bool("dry-run", false, "Report drift only; no DB writes")
	confirm = flag.Bool("confirm", false, "Required to write recomputed scores")
)

type drift struct {
	ArgumentID string
	OldScore   float64
	NewScore   float64
	OldCount   int
	NewCount   int
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		log.Fatal("--dsn not provided and DATABASE_URL not set")
	}

	conn, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}

	rows, err := conn.Query(`
		SELECT a.id, a.impact_score, a.mind_change_count,
		       COALESCE(AVG(post.support_value - pre.support_value), 0) AS impact,
		       COUNT(post.id) AS attributions
		FROM debate.arguments a
		LEFT JOIN market.stances post
		  ON post.attributed_argument_id = a.id AND post.phase = 'post'
		LEFT JOIN market.stances pre
		  ON pre.debate_id = post.debate_id
		 AND pre.voter_id = post.voter_id
		 AND pre.phase = 'pre'
		GROUP BY a.id, a.impact_score, a.mind_change_count`)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	var drifted []drift
	total := 0
	for rows.Next() {
		var d drift
		if err := rows.Scan(&d.ArgumentID, &d.OldScore, &d.OldCount, &d.NewScore, &d.NewCount); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		total++
		if d.OldScore != d.NewScore || d.OldCount != d.NewCount {
			drifted = append(drifted, d)
		}
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Row iteration failed: %v", err)
	}

	fmt.Printf("Checked %d arguments, %d drifted\n", total, len(drifted))
	for _, d := range drifted {
		fmt.Printf("  %s: score %.2f -> %.2f, count %d -> %d\n",
			d.ArgumentID, d.OldScore, d.NewScore, d.OldCount, d.NewCount)
	}

	if *dryRun || len(drifted) == 0 {
		fmt.Println("No changes made.")
		return
	}
	if !*confirm {
		log.Fatal("Refusing to write without --confirm. Add --dry-run to preview.")
	}

	tx, err := conn.Begin()
	if err != nil {
		log.Fatalf("Begin failed: %v", err)
	}
	stmt, err := tx.Prepare(`UPDATE debate.arguments SET impact_score = $1, mind_change_count = $2 WHERE id = $3`)
	if err != nil {
		tx.Rollback()
		log.Fatalf("Prepare failed: %v", err)
	}
	defer stmt.Close()

	for _, d := range drifted {
		if _, err := stmt.Exec(d.NewScore, d.NewCount, d.ArgumentID); err != nil {
			tx.Rollback()
			log.Fatalf("Update %s failed: %v", d.ArgumentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("Commit failed: %v", err)
	}

	fmt.Printf("Updated %d arguments.\n", len(drifted))
}
