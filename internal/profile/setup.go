package profile

import (
	"log"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "app_profiles"); err != nil {
		log.Fatal("Failed to ensure schema app_profiles: ", err)
	}

	if err := db.DB.AutoMigrate(&UserProfile{}, &DriverProfile{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
