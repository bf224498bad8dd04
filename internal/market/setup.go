package market

import (
	"log"

	"github.com/OpenFloor/OF-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "market"); err != nil {
		log.Fatal("Failed to create market schema: ", err)
	}

	if err := db.DB.AutoMigrate(
		&Stance{},
		&MarketDataPoint{},
		&StanceSpike{},
		&ReputationFactor{},
		&ReputationHistory{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
