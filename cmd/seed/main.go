package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	dsn     = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	count   = flag.Int("count", 5, "Number of demo passenger profiles to create")
	drivers = flag.Int("drivers", 2, "Number of demo driver profiles (with documents) to create")
	dryRun  = flag.Bool("dry-run", false, "Print what would be inserted; no DB writes")
	confirm = flag.Bool("confirm", false, "Required to actually write rows")
)

type demoProfile struct {
	id          string
	email       string
	phone       string
	firstName   string
	lastName    string
	displayName string
	role        string
	withDocs    bool
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	profiles := buildDemoProfiles(*count, *drivers)

	if *dryRun {
		for _, p := range profiles {
			fmt.Printf("would insert %s (%s, role=%s, docs=%v)\n", p.email, p.id, p.role, p.withDocs)
		}
		fmt.Printf("dry run: %d profiles, no writes\n", len(profiles))
		return
	}
	if !*confirm {
		fatalf("refusing to write without --confirm (use --dry-run to preview)")
	}

	conn, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("open: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	inserted := 0
	for _, p := range profiles {
		if err := insertProfile(ctx, conn, p); err != nil {
			fatalf("inserting %s: %v", p.email, err)
		}
		inserted++
	}
	fmt.Printf("seeded %d profiles\n", inserted)
}

func buildDemoProfiles(passengers, drivers int) []demoProfile {
	var out []demoProfile
	for i := 0; i < passengers; i++ {
		id := uuid.New().String()
		out = append(out, demoProfile{
			id:          id,
			email:       fmt.Sprintf("passenger%d+%s@example.com", i+1, id[:8]),
			phone:       fmt.Sprintf("+1415555%04d", i+1),
			firstName:   "Demo",
			lastName:    fmt.Sprintf("Passenger%d", i+1),
			displayName: fmt.Sprintf("Demo Passenger%d", i+1),
			role:        "passenger",
		})
	}
	for i := 0; i < drivers; i++ {
		id := uuid.New().String()
		out = append(out, demoProfile{
			id:          id,
			email:       fmt.Sprintf("driver%d+%s@example.com", i+1, id[:8]),
			phone:       fmt.Sprintf("+1415666%04d", i+1),
			firstName:   "Demo",
			lastName:    fmt.Sprintf("Driver%d", i+1),
			displayName: fmt.Sprintf("Demo Driver%d", i+1),
			role:        "driver",
			withDocs:    true,
		})
	}
	return out
}

func insertProfile(ctx context.Context, conn *sql.DB, p demoProfile) error {
	_, err := conn.ExecContext(ctx, `
		insert into app_profiles.user_profiles
			(id, email, phone, first_name, last_name, display_name, role,
			 is_email_verified, is_phone_verified, profile_url, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, true, true, '', now(), now())
		on conflict (id) do nothing
	`, p.id, p.email, p.phone, p.firstName, p.lastName, p.displayName, p.role)
	if err != nil {
		return err
	}
	if !p.withDocs {
		return nil
	}

	dl := fmt.Sprintf("https://storage.example.com/mamagadhi/dl/%s_%s.png", p.id, uuid.New().String())
	idDoc := fmt.Sprintf("https://storage.example.com/mamagadhi/id/%s_%s.png", p.id, uuid.New().String())
	_, err = conn.ExecContext(ctx, `
		insert into app_profiles.driver_profiles
			(user_profile_id, dl_url, id_url, updated_at)
		values ($1, $2, $3, now())
		on conflict (user_profile_id) do update
			set dl_url = excluded.dl_url, id_url = excluded.id_url, updated_at = now()
	`, p.id, dl, idDoc)
	return err
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
