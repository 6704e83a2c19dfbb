package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"salonpos-backend/config"
	"salonpos-backend/models"
	"salonpos-backend/services"
)

const usage = "expected one of 'migrate', 'create-owner', 'sweep' or 'remind'"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	createOwnerCmd := flag.NewFlagSet("create-owner", flag.ExitOnError)
	email := createOwnerCmd.String("email", "", "Owner email")
	password := createOwnerCmd.String("password", "", "Owner password (min 8 characters)")
	name := createOwnerCmd.String("name", "", "Owner name")
	phone := createOwnerCmd.String("phone", "", "Owner phone in E.164 form")
	salonName := createOwnerCmd.String("salon", "", "Salon name")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	config.SetupLogger(cfg.Log)
	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		openDB(cfg)
		fmt.Println("Schema is up to date.")
	case "create-owner":
		createOwnerCmd.Parse(os.Args[2:])
		if *email == "" || *password == "" || *name == "" || *salonName == "" {
			fmt.Println("email, password, name and salon are required")
			createOwnerCmd.PrintDefaults()
			os.Exit(1)
		}
		accounts := services.NewAccountService(openDB(cfg), cfg.Auth.TrialDays)
		user, salon, err := accounts.Register(ctx, services.RegisterInput{
			Email:     *email,
			Phone:     *phone,
			Name:      *name,
			Password:  *password,
			SalonName: *salonName,
		})
		if err != nil {
			log.Fatalf("Failed to create owner: %v", err)
		}
		fmt.Printf("Owner '%s' created for salon '%s' (%s).\n", user.Email, salon.Name, salon.ID)
	case "sweep":
		db := openDB(cfg)
		appointments := services.NewAppointmentService(db, services.NewSettlementService(db, nil))
		n, err := services.NewAutoCompleter(appointments).Sweep(ctx)
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		fmt.Printf("Completed %d overdue appointment(s).\n", n)
	case "remind":
		reminders := services.NewReminderService(openDB(cfg), services.NewTwilioSender(cfg.Twilio))
		ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		report := reminders.SendDailyReminders(ctx)
		fmt.Printf("Reminders sent=%d failed=%d skipped=%d\n", report.Sent, report.Failed, report.Skipped)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openDB(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	// Ensure tables exist if running the cli before the server
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}
	return db
}
