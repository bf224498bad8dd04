package debate

import (
	"log"

	"github.com/OpenFloor/OF-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "debate"); err != nil {
		log.Fatal("Failed to create debate schema: ", err)
	}

	if err := db.DB.AutoMigrate(&Debate{}, &Argument{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
