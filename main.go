package main

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spendwise/backend/internal/jobs"
	"github.com/spendwise/backend/internal/models"
	"github.com/spendwise/backend/internal/reports"
	"github.com/spendwise/backend/internal/router"
	"github.com/spendwise/backend/internal/schedule"
	"github.com/spendwise/backend/internal/types"
)

func main() {
	// Load the .env file if one exists. Not having one is fine,
	// configuration can come from the environment directly.
	_ = godotenv.Load()

	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	apiURL, ok := os.LookupEnv("API_URL")
	if !ok {
		log.Fatal().Msg("environment variable API_URL must be set")
	}

	baseURL, err := url.Parse(apiURL)
	if err != nil {
		log.Fatal().Msg("environment variable API_URL must be a valid URL")
	}

	// Create data directory
	dataDir := filepath.Join(".", "data")
	err = os.MkdirAll(dataDir, os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Connect to the database. This also migrates the schema.
	_, err = models.Connect("data/gorm.db?_pragma=foreign_keys(1)")
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	r, teardown, err := router.Config(baseURL)
	defer teardown()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	router.AttachRoutes(r.Group("/"))

	if err := jobs.RegisterMetrics(); err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer jobs.UnregisterMetrics()

	// The materializer runs once on startup to catch up on expenses
	// that became due while the backend was down, then daily at
	// midnight UTC.
	materializer := jobs.NewMaterializer(models.DB)
	materialize := func(now time.Time) {
		_, err := materializer.MaterializeDue(context.Background(), types.DateOf(now))
		if err != nil {
			log.Error().Err(err).Msg("materialize recurring expenses")
		}
	}
	materialize(time.Now().UTC())

	scheduler := schedule.NewScheduler()
	defer scheduler.Stop()

	_, err = scheduler.OnTick(schedule.DailySpec, "materialize-recurring-expenses", materialize)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Monthly report triggering needs a message broker. Without one
	// the backend still works, only the report queue is inactive.
	amqpURL, ok := os.LookupEnv("AMQP_URL")
	if !ok {
		log.Warn().Msg("environment variable AMQP_URL is not set, monthly reports are disabled")
	} else {
		client, err := reports.NewClient(amqpURL, reports.DefaultQueue)
		if err != nil {
			log.Error().Err(err).Msg("connecting to the message broker failed, monthly reports are disabled")
		} else {
			defer client.Close()

			if err := reports.RegisterMetrics(); err != nil {
				log.Fatal().Msg(err.Error())
			}
			defer reports.UnregisterMetrics()

			trigger := reports.NewTrigger(client)
			_, err = scheduler.OnTick(schedule.MonthlySpec, "publish-monthly-report", func(now time.Time) {
				_ = trigger.PublishMonthly(context.Background())
			})
			if err != nil {
				log.Fatal().Msg(err.Error())
			}

			// The report worker runs in-process. It consumes report
			// requests from the queue and writes the CSV files to the
			// reports directory.
			reportDir := filepath.Join(dataDir, "reports")
			err = os.MkdirAll(reportDir, os.ModePerm)
			if err != nil {
				log.Fatal().Msg(err.Error())
			}

			consumer := reports.NewConsumer(models.DB, reportDir)
			go func() {
				err := consumer.Run(context.Background(), client)
				if err != nil {
					log.Error().Err(err).Msg("report worker stopped")
				}
			}()
		}
	}

	scheduler.Start()

	if err := r.Run(); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
