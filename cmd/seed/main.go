package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/civicalert/incident_reporting_system/internal/config"
	"github.com/civicalert/incident_reporting_system/pkg/logger"
	"github.com/civicalert/incident_reporting_system/pkg/postgres"
)

// Демо-инцидент для наполнения базы. Статусы намеренно из обоих
// словарей - так выглядят реальные данные после действий ответчиков.
type seedIncident struct {
	title       string
	description string
	incType     string
	lng, lat    float64
	address     string
	severity    string
	status      string
	reportedBy  string
	assignment  []string
	score       int
	ageHours    int
}

var seedIncidents = []seedIncident{
	{
		title:       "Apartment fire on 5th street",
		description: "Smoke coming from the third floor, residents evacuating",
		incType:     "fire",
		lng:         -122.4194, lat: 37.7749,
		address:    "540 5th St",
		severity:   "critical",
		status:     "IN_PROGRESS",
		reportedBy: "seed",
		assignment: []string{"Fire"},
		score:      5,
		ageHours:   2,
	},
	{
		title:       "Car accident at the main intersection",
		description: "Two vehicles collided, traffic blocked in both directions",
		incType:     "accident",
		lng:         -122.4089, lat: 37.7837,
		address:    "Market St & 4th St",
		severity:   "high",
		status:     "VERIFIED",
		reportedBy: "seed",
		assignment: []string{"Police", "Medical"},
		score:      3,
		ageHours:   5,
	},
	{
		title:       "Person collapsed near the park entrance",
		description: "Elderly man unconscious, bystanders performing CPR",
		incType:     "medical",
		lng:         -122.4530, lat: 37.7694,
		address:    "Golden Gate Park east entrance",
		severity:   "critical",
		status:     "resolved",
		reportedBy: "seed",
		assignment: []string{"Medical"},
		score:      4,
		ageHours:   30,
	},
	{
		title:       "Break-in reported at a storefront",
		description: "Shattered window, alarm going off",
		incType:     "security",
		lng:         -122.4110, lat: 37.7810,
		address:    "88 Mission St",
		severity:   "medium",
		status:     "UNVERIFIED",
		reportedBy: "anonymous",
		score:      1,
		ageHours:   1,
	},
	{
		title:       "Street flooding after heavy rain",
		description: "Storm drain overflowing, water entering basements",
		incType:     "natural_disaster",
		lng:         -122.3977, lat: 37.7895,
		address:    "Folsom St",
		severity:   "high",
		status:     "reported",
		reportedBy: "seed",
		score:      0,
		ageHours:   12,
	},
	{
		title:       "Minor kitchen fire, extinguished",
		description: "Small grease fire put out by owner, smoke cleared",
		incType:     "fire",
		lng:         -122.4313, lat: 37.7739,
		address:    "210 Divisadero St",
		severity:   "low",
		status:     "FALSE_REPORT",
		reportedBy: "anonymous",
		score:      0,
		ageHours:   50,
	},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()

	query := `
		INSERT INTO incidents (title, description, type, location, address, severity, status,
			reported_by, assignment, verification_score, created_at, updated_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7, $8, $9, $10, $11, $12, $12);
	`

	for _, inc := range seedIncidents {
		createdAt := time.Now().Add(-time.Duration(inc.ageHours) * time.Hour)
		assignment := inc.assignment
		if assignment == nil {
			assignment = []string{}
		}
		_, err := dbpool.Exec(ctx, query,
			inc.title,
			inc.description,
			inc.incType,
			inc.lng,
			inc.lat,
			inc.address,
			inc.severity,
			inc.status,
			inc.reportedBy,
			assignment,
			inc.score,
			createdAt,
		)
		if err != nil {
			log.WithError(err).Fatalf("Failed to seed incident %q", inc.title)
		}
		log.WithFields(logrus.Fields{
			"title":  inc.title,
			"status": inc.status,
		}).Info("Seeded incident")
	}

	log.Infof("Seeding complete, %d incidents inserted", len(seedIncidents))
}
